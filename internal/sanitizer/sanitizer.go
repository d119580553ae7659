// Package sanitizer statically rejects diffs that add obviously
// dangerous lines before they ever reach the sandbox or a human
// reviewer.
package sanitizer

import (
	"bufio"
	"regexp"
	"strings"
)

// forbiddenPatterns short-circuit a scan on first match. Import forms
// cover both "import X" and "from X import ...".
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\s)import\s+os(?:\s|,|$)`),
	regexp.MustCompile(`(?:^|\s)from\s+os\s+import`),
	regexp.MustCompile(`(?:^|\s)import\s+subprocess(?:\s|,|$)`),
	regexp.MustCompile(`(?:^|\s)from\s+subprocess\s+import`),
	regexp.MustCompile(`(?:^|\s)import\s+shutil(?:\s|,|$)`),
	regexp.MustCompile(`(?:^|\s)from\s+shutil\s+import`),
	regexp.MustCompile(`(?:^|\s)import\s+sys(?:\s|,|$)`),
	regexp.MustCompile(`(?:^|\s)from\s+sys\s+import`),
	regexp.MustCompile(`\beval\(`),
	regexp.MustCompile(`\bexec\(`),
	regexp.MustCompile(`__import__`),
	regexp.MustCompile(`\bos\.system\b`),
	regexp.MustCompile(`\bos\.popen\b`),
}

// ScanDiff scans diff's added lines for forbidden patterns. It returns
// (true, "") when the diff is clean, or (false, pattern) naming the
// first forbidden pattern matched.
func ScanDiff(diff string) (ok bool, threat string) {
	currentFile := ""
	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			currentFile = parseGitHeader(line)
			continue
		case strings.HasPrefix(line, "+++ "):
			currentFile = parsePlusPlusPlusHeader(line)
			continue
		case strings.HasPrefix(line, "+++"):
			continue
		}

		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}

		added := strings.TrimPrefix(line, "+")

		if isTestPath(currentFile) {
			continue
		}

		stripped := strings.TrimSpace(added)
		if strings.HasPrefix(stripped, "#") {
			continue
		}
		if strings.Contains(strings.ToLower(added), "mock") {
			continue
		}

		for _, pattern := range forbiddenPatterns {
			if pattern.MatchString(added) {
				return false, pattern.String()
			}
		}
	}

	return true, ""
}

func parseGitHeader(line string) string {
	// "diff --git a/path b/path" — take the b/ side.
	idx := strings.Index(line, " b/")
	if idx < 0 {
		return ""
	}
	return line[idx+3:]
}

func parsePlusPlusPlusHeader(line string) string {
	path := strings.TrimSpace(strings.TrimPrefix(line, "+++"))
	path = strings.TrimPrefix(path, "b/")
	if path == "/dev/null" {
		return ""
	}
	return path
}

func isTestPath(path string) bool {
	if path == "" {
		return false
	}
	lower := strings.ToLower(path)
	if strings.Contains(lower, "/tests/") || strings.HasPrefix(lower, "tests/") {
		return true
	}
	base := lower
	if idx := strings.LastIndex(lower, "/"); idx >= 0 {
		base = lower[idx+1:]
	}
	return strings.HasPrefix(base, "test_") || base == "conftest.py"
}
