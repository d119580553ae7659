package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanDiff_ProductionCodeForbidden(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"--- a/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"@@ -1,1 +1,3 @@\n" +
		"+import os\n" +
		"+os.system(\"x\")\n"

	ok, threat := ScanDiff(diff)
	assert.False(t, ok)
	assert.NotEmpty(t, threat)
}

func TestScanDiff_TestFileExempt(t *testing.T) {
	diff := "diff --git a/tests/test_u.py b/tests/test_u.py\n" +
		"--- a/tests/test_u.py\n" +
		"+++ b/tests/test_u.py\n" +
		"@@ -1,1 +1,3 @@\n" +
		"+import os\n" +
		"+os.system(\"x\")\n"

	ok, threat := ScanDiff(diff)
	assert.True(t, ok)
	assert.Empty(t, threat)
}

func TestScanDiff_ConftestExempt(t *testing.T) {
	diff := "diff --git a/conftest.py b/conftest.py\n" +
		"+++ b/conftest.py\n" +
		"+import subprocess\n"

	ok, _ := ScanDiff(diff)
	assert.True(t, ok)
}

func TestScanDiff_CommentOnlyExempt(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"+# import os is dangerous, do not do os.system(\"x\")\n"

	ok, _ := ScanDiff(diff)
	assert.True(t, ok)
}

func TestScanDiff_MockSubstringExempt(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"+mock_os.system(\"x\")\n"

	ok, _ := ScanDiff(diff)
	assert.True(t, ok)
}

func TestScanDiff_EvalForbidden(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"+result = eval(user_input)\n"

	ok, threat := ScanDiff(diff)
	assert.False(t, ok)
	assert.Contains(t, threat, "eval")
}

func TestScanDiff_CleanDiffPasses(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"+def add(a, b):\n" +
		"+    return a + b\n"

	ok, threat := ScanDiff(diff)
	assert.True(t, ok)
	assert.Empty(t, threat)
}

func TestScanDiff_RemovedLinesIgnored(t *testing.T) {
	diff := "diff --git a/src/u.py b/src/u.py\n" +
		"+++ b/src/u.py\n" +
		"-import os\n" +
		"-os.system(\"x\")\n"

	ok, _ := ScanDiff(diff)
	assert.True(t, ok)
}

func TestScanDiff_FileSwitchResetsExemption(t *testing.T) {
	diff := "diff --git a/tests/test_u.py b/tests/test_u.py\n" +
		"+++ b/tests/test_u.py\n" +
		"+import os\n" +
		"diff --git a/src/v.py b/src/v.py\n" +
		"+++ b/src/v.py\n" +
		"+import os\n"

	ok, threat := ScanDiff(diff)
	assert.False(t, ok)
	assert.NotEmpty(t, threat)
}
