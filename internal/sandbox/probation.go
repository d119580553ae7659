package sandbox

import (
	"os"
	"path/filepath"
	"time"

	"github.com/relayforge/conductor/internal/store"
)

// defaultProbationTimeout is how long the lock file gates the sandbox
// when no prior confidence score is known.
const defaultProbationTimeout = 600 * time.Second

type probationRecord struct {
	Confidence *int `json:"confidence,omitempty"`
}

// ProbationGate tracks a single lock file used to pause the sandbox
// after a prior failure, until a dynamic timeout elapses.
type ProbationGate struct {
	path    string
	timeout time.Duration
}

// NewProbationGate creates a gate backed by the lock file at path.
func NewProbationGate(path string, timeout time.Duration) *ProbationGate {
	if timeout <= 0 {
		timeout = defaultProbationTimeout
	}
	return &ProbationGate{path: path, timeout: timeout}
}

// CheckProbation reports whether the sandbox may run. If the lock file
// exists and is younger than the dynamic timeout, the system is in
// probation and CheckProbation returns false. A stale lock file is
// removed before returning true.
func (g *ProbationGate) CheckProbation() bool {
	info, err := os.Stat(g.path)
	if err != nil {
		return true
	}

	timeout := g.timeout
	var rec probationRecord
	if err := store.ReadJSON(g.path, &rec); err == nil && rec.Confidence != nil {
		timeout = scaleTimeout(g.timeout, *rec.Confidence)
	}

	if time.Since(info.ModTime()) < timeout {
		return false
	}

	_ = os.Remove(g.path)
	return true
}

// EnterProbation writes or refreshes the lock file, recording the
// confidence score that triggered probation so the next check can
// scale its timeout.
func (g *ProbationGate) EnterProbation(confidence *int) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return err
	}
	return store.WriteJSON(g.path, probationRecord{Confidence: confidence})
}

// scaleTimeout scales base down as confidence rises: a 100-confidence
// prior result needs no further probation, a 0-confidence one gets the
// full base timeout.
func scaleTimeout(base time.Duration, confidence int) time.Duration {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	factor := float64(100-confidence) / 100.0
	return time.Duration(float64(base) * factor)
}
