package model

import "testing"

func TestFingerprintCollidesAcrossVolatileFields(t *testing.T) {
	a := "2026-01-21T14:55:13.123Z ERROR PID:123 connection refused 0xdead"
	b := "2026-02-02T09:00:00.000Z ERROR PID:8 connection refused 0xbeef"

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("expected fingerprints to collide, got %q and %q", Fingerprint(a), Fingerprint(b))
	}
}

func TestFingerprintDiffersOnSemanticChange(t *testing.T) {
	a := "connection refused"
	b := "connection reset"

	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("expected distinct fingerprints for distinct errors")
	}
}

func TestClassifyVerdictThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Verdict
	}{
		{49, VerdictTrash},
		{50, VerdictRefine},
		{84, VerdictRefine},
		{85, VerdictPass},
		{100, VerdictPass},
	}
	for _, c := range cases {
		if got := ClassifyVerdict(c.score, 85); got != c.want {
			t.Errorf("ClassifyVerdict(%d, 85) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	if ClampScore(-5) != 0 {
		t.Fatal("expected clamp to 0")
	}
	if ClampScore(150) != 100 {
		t.Fatal("expected clamp to 100")
	}
	if ClampScore(42) != 42 {
		t.Fatal("expected unchanged value within range")
	}
}
