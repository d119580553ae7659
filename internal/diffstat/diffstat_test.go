package diffstat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/pkg/foo.go b/pkg/foo.go
index 1111111..2222222 100644
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,3 +1,4 @@
 package pkg
+func Foo() {}

 func Bar() {}
diff --git a/pkg/new_file.go b/pkg/new_file.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/pkg/new_file.go
@@ -0,0 +1,2 @@
+package pkg
+func New() {}
diff --git a/pkg/old_file.go b/pkg/old_file.go
deleted file mode 100644
index 4444444..0000000
--- a/pkg/old_file.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package pkg
-func Old() {}
`

func TestFileStats(t *testing.T) {
	stats, err := FileStats(sampleDiff)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byPath := map[string]int{}
	for _, s := range stats {
		byPath[s.Path] = s.Additions
	}
	assert.Equal(t, 1, byPath["pkg/foo.go"])
	assert.Equal(t, 2, byPath["pkg/new_file.go"])
}

func TestBalancedSample_UnderBudgetReturnsWholeDiff(t *testing.T) {
	sample, err := BalancedSample(sampleDiff, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, sampleDiff, sample)
}

func TestBalancedSample_OverBudgetIncludesAllHeaders(t *testing.T) {
	sample, err := BalancedSample(sampleDiff, 50)
	require.NoError(t, err)
	assert.Contains(t, sample, "diff --git a/pkg/foo.go")
	assert.Contains(t, sample, "diff --git a/pkg/new_file.go")
	assert.Contains(t, sample, "diff --git a/pkg/old_file.go")
}

func TestBalancedSample_FavorsNewFilesOverDeleted(t *testing.T) {
	sample, err := BalancedSample(sampleDiff, 120)
	require.NoError(t, err)

	newIdx := strings.Index(sample, "func New()")
	oldIdx := strings.Index(sample, "func Old()")

	if oldIdx != -1 {
		assert.NotEqual(t, -1, newIdx, "new-file content should appear whenever budget allows deleted-file content")
	}
}

func TestIntroducesUntestedDefinition_NewFunctionNoTests(t *testing.T) {
	diff := `diff --git a/pkg/foo.go b/pkg/foo.go
index 1111111..2222222 100644
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,1 +1,2 @@
 package pkg
+def handle_request():
`
	flagged, err := IntroducesUntestedDefinition(diff)
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestIntroducesUntestedDefinition_WithTestFilePresent(t *testing.T) {
	diff := `diff --git a/pkg/foo.go b/pkg/foo.go
index 1111111..2222222 100644
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,1 +1,2 @@
 package pkg
+def handle_request():
diff --git a/tests/test_foo.go b/tests/test_foo.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/tests/test_foo.go
@@ -0,0 +1,1 @@
+def test_handle_request(): pass
`
	flagged, err := IntroducesUntestedDefinition(diff)
	require.NoError(t, err)
	assert.False(t, flagged)
}

func TestIntroducesUntestedDefinition_NoNewDefinitions(t *testing.T) {
	diff := `diff --git a/pkg/foo.go b/pkg/foo.go
index 1111111..2222222 100644
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,1 +1,2 @@
 package pkg
+x = 1
`
	flagged, err := IntroducesUntestedDefinition(diff)
	require.NoError(t, err)
	assert.False(t, flagged)
}
