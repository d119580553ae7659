package diffstat

import (
	"strings"

	"github.com/waigani/diffparser"
)

// newDefinitionPrefixes are the added-line prefixes (after stripping the
// leading "+" and surrounding whitespace) that mark a new function or
// class definition, mirroring the prefixes the ported heuristic looked
// for in the Agent's target language.
var newDefinitionPrefixes = []string{"def ", "async def ", "class "}

// IntroducesUntestedDefinition reports whether diff adds a new function
// or class definition outside a test path while touching no test file
// itself — Heart's rule for rejecting a PR that lacks coverage for new
// behavior.
func IntroducesUntestedDefinition(diff string) (bool, error) {
	parsed, err := diffparser.Parse(diff)
	if err != nil {
		return false, err
	}

	hasTestFile := false
	hasUntestedDefinition := false

	for _, f := range parsed.Files {
		path := filePath(f)
		if isTestPath(path) {
			hasTestFile = true
			continue
		}

		for _, hunk := range f.Hunks {
			for _, line := range hunk.NewRange.Lines {
				if line.Mode != diffparser.ADDED {
					continue
				}
				if definesNewSymbol(line.Content) {
					hasUntestedDefinition = true
				}
			}
		}
	}

	return hasUntestedDefinition && !hasTestFile, nil
}

func isTestPath(path string) bool {
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

func definesNewSymbol(content string) bool {
	stripped := strings.TrimSpace(content)
	for _, prefix := range newDefinitionPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return true
		}
	}
	return false
}
