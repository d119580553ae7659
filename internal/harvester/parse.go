package harvester

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relayforge/conductor/internal/model"
)

// checklistLine matches "- [ ] CRITIQUE title (location): description",
// the canonical markdown checklist shape the summarize prompt asks for.
// The Agent's exact phrasing of priority is a heuristic substring match
// in spirit, so this stays a narrow, pluggable regex rather than a
// strict grammar: keep it easy to swap if a translated Agent response
// ever uses different wording.
var checklistLine = regexp.MustCompile(`^-\s*\[\s*\]\s*(CRITIQUE|HAUTE)\s+(.+?)\s+\(([^)]*)\)\s*:\s*(.+)$`)

// parseChecklist extracts added lines from a unidiff patch and parses
// any that match the checklist format into harvest items.
func parseChecklist(patch string) []model.HarvestItem {
	var items []model.HarvestItem
	for _, line := range addedLines(patch) {
		item, ok := parseChecklistLine(line)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

// addedLines returns every added content line in a unidiff patch, with
// its leading '+' stripped. The file-header lines ("+++ b/path") are
// excluded, matching diffstat's own added/removed classification.
func addedLines(patch string) []string {
	var lines []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "+") {
			lines = append(lines, strings.TrimPrefix(line, "+"))
		}
	}
	return lines
}

func parseChecklistLine(line string) (model.HarvestItem, bool) {
	m := checklistLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return model.HarvestItem{}, false
	}
	priority := model.HarvestPriority(m[1])
	return model.HarvestItem{
		Title:       strings.TrimSpace(m[2]),
		Location:    strings.TrimSpace(m[3]),
		Description: strings.TrimSpace(m[4]),
		Priority:    priority,
	}, true
}

// renderChecklist renders items back into the canonical markdown
// checklist format, for the human-readable cache mirror.
func renderChecklist(items []model.HarvestItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- [ ] %s %s (%s): %s\n", item.Priority, item.Title, item.Location, item.Description)
	}
	return b.String()
}
