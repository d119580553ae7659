// Package diffstat parses unified diffs into typed file/hunk records
// (via diffparser) for the Quality Gate's balanced sampler and Forge's
// file-stat walk. Heart's test-file rule, IntroducesUntestedDefinition,
// is a line scan over the raw diff rather than a diffparser walk.
package diffstat

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/relayforge/conductor/internal/model"
	"github.com/waigani/diffparser"
)

// FileStats parses diff and returns one model.FileStat per file touched.
func FileStats(diff string) ([]model.FileStat, error) {
	parsed, err := diffparser.Parse(diff)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	stats := make([]model.FileStat, 0, len(parsed.Files))
	for _, f := range parsed.Files {
		adds, dels := countLines(f)
		stats = append(stats, model.FileStat{
			Path:      filePath(f),
			Additions: adds,
			Deletions: dels,
		})
	}
	return stats, nil
}

func filePath(f *diffparser.DiffFile) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OrigName
}

func countLines(f *diffparser.DiffFile) (additions, deletions int) {
	for _, hunk := range f.Hunks {
		for _, line := range hunk.NewRange.Lines {
			switch line.Mode {
			case diffparser.ADDED:
				additions++
			case diffparser.REMOVED:
				deletions++
			}
		}
		for _, line := range hunk.OrigRange.Lines {
			if line.Mode == diffparser.REMOVED {
				deletions++
			}
		}
	}
	return additions, deletions
}

// mode classifies a parsed file's fate, collapsing diffparser's FileMode
// into the three buckets the balanced sampler allocates budget across.
type mode int

const (
	modeNew mode = iota
	modeModified
	modeDeleted
)

func classify(f *diffparser.DiffFile) mode {
	switch f.Mode {
	case diffparser.NEW:
		return modeNew
	case diffparser.DELETED:
		return modeDeleted
	default:
		return modeModified
	}
}

// hunksOnly renders a file's hunk headers and hunk lines (added,
// removed and unchanged context), without its diff --git header — the balanced sampler writes every
// header up front, then fills per-bucket budget with hunk bodies.
func hunksOnly(f *diffparser.DiffFile) string {
	var b strings.Builder
	for _, hunk := range f.Hunks {
		b.WriteString(hunk.HunkHeader)
		if !strings.HasSuffix(hunk.HunkHeader, "\n") {
			b.WriteString("\n")
		}
		for _, line := range hunk.NewRange.Lines {
			writeLine(&b, line)
		}
		for _, line := range hunk.OrigRange.Lines {
			if line.Mode == diffparser.REMOVED {
				writeLine(&b, line)
			}
		}
	}
	return b.String()
}

// introducingPrefixes are the stripped-added-line prefixes that count
// as "introduces a new function or class" for the test-file rule.
var introducingPrefixes = []string{"def ", "async def ", "class "}

// IntroducesUntestedDefinition reports whether diff adds a new
// function or class definition to a non-test file without also
// touching a test file (a path under tests/ or with basename
// test_*). A diff that only edits existing definitions, or that pairs
// its new definitions with test coverage, returns false. The error
// return is always nil; it exists so callers can treat this the same
// as diffstat's other diff-walking functions.
func IntroducesUntestedDefinition(diff string) (bool, error) {
	introduces := false
	hasTestFile := false
	currentFile := ""

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			currentFile = gitHeaderPath(line)
			if isTestPath(currentFile) {
				hasTestFile = true
			}
			continue
		case strings.HasPrefix(line, "+++"):
			continue
		}

		if !strings.HasPrefix(line, "+") || isTestPath(currentFile) {
			continue
		}

		stripped := strings.TrimSpace(strings.TrimPrefix(line, "+"))
		for _, prefix := range introducingPrefixes {
			if strings.HasPrefix(stripped, prefix) {
				introduces = true
				break
			}
		}
	}

	return introduces && !hasTestFile, nil
}

func gitHeaderPath(line string) string {
	idx := strings.Index(line, " b/")
	if idx < 0 {
		return ""
	}
	return line[idx+3:]
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
	return strings.HasPrefix(base, "test_")
}

func writeLine(b *strings.Builder, line *diffparser.DiffLine) {
	switch line.Mode {
	case diffparser.ADDED:
		b.WriteString("+")
	case diffparser.REMOVED:
		b.WriteString("-")
	default:
		b.WriteString(" ")
	}
	b.WriteString(line.Content)
	b.WriteString("\n")
}
