package diffstat

import (
	"strings"

	"github.com/waigani/diffparser"
)

// Budget fractions for the balanced sample: new files get the largest
// share since they carry the most evidence of whether a mission was
// actually accomplished, deleted files the least since a deletion is
// self-evident from its header alone.
const (
	newFileShare      = 0.60
	modifiedFileShare = 0.30
	deletedFileShare  = 0.10
)

// BalancedSample produces a diff excerpt bounded by maxChars: every
// file header is always included, then the remaining budget is
// allocated 60% to new files, 30% to modified files, 10% to deleted
// files. Plain head-truncation is avoided because it biases the sample
// toward whatever files happen to sort first — usually deletions.
func BalancedSample(diff string, maxChars int) (string, error) {
	if len(diff) <= maxChars {
		return diff, nil
	}

	parsed, err := diffparser.Parse(diff)
	if err != nil {
		return truncateHead(diff, maxChars), nil
	}

	var headers strings.Builder
	buckets := map[mode][]*diffparser.DiffFile{}
	for _, f := range parsed.Files {
		headers.WriteString(f.DiffHeader)
		if !strings.HasSuffix(f.DiffHeader, "\n") {
			headers.WriteString("\n")
		}
		m := classify(f)
		buckets[m] = append(buckets[m], f)
	}

	remaining := maxChars - headers.Len()
	if remaining < 0 {
		remaining = 0
	}

	var body strings.Builder
	body.WriteString(renderBucket(buckets[modeNew], int(float64(remaining)*newFileShare)))
	body.WriteString(renderBucket(buckets[modeModified], int(float64(remaining)*modifiedFileShare)))
	body.WriteString(renderBucket(buckets[modeDeleted], int(float64(remaining)*deletedFileShare)))

	return headers.String() + body.String(), nil
}

// renderBucket concatenates the rendered text of files in a bucket,
// stopping once budget is exhausted.
func renderBucket(files []*diffparser.DiffFile, budget int) string {
	if budget <= 0 || len(files) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range files {
		rendered := hunksOnly(f)
		if b.Len()+len(rendered) > budget {
			remaining := budget - b.Len()
			if remaining > 0 {
				b.WriteString(rendered[:remaining])
			}
			break
		}
		b.WriteString(rendered)
	}
	return b.String()
}

func truncateHead(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}
