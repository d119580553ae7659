package model

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// fingerprintPatterns strip volatile substrings (timestamps, PIDs, ports,
// UUIDs, hex blobs, whitespace runs) from an error string before hashing,
// so semantically identical errors collide.
var fingerprintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z?`), // ISO timestamp
	regexp.MustCompile(`(?i)\bpid[:=]\s*\d+`),
	regexp.MustCompile(`(?i)\bport[:=]\s*\d+`),
	regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`), // UUID
	regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`),                                            // hex blob
	regexp.MustCompile(`\b[0-9a-fA-F]{16,}\b`),                                          // bare hex hash
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint returns a stable MD5 hex digest for an error string with
// timestamps, PIDs, ports, UUIDs, and hex blobs normalized away, so that
// two errors differing only in those fields collide. Used to key
// HealerEntry/SentinelEntry recurrence tracking.
func Fingerprint(errString string) string {
	normalized := errString
	for _, pattern := range fingerprintPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	normalized = strings.ToLower(strings.TrimSpace(whitespaceRun.ReplaceAllString(normalized, " ")))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// HealerEntryStatus tracks whether an error fingerprint is being
// automatically healed, on cooldown, or known to recur.
type HealerEntryStatus string

const (
	HealerStatusNew       HealerEntryStatus = "NEW"
	HealerStatusHealing   HealerEntryStatus = "HEALING"
	HealerStatusCooldown  HealerEntryStatus = "COOLDOWN"
	HealerStatusRecurring HealerEntryStatus = "RECURRING"
)

// HealerEntry tracks one error fingerprint's heal-attempt history. A
// fingerprint in RECURRING status suppresses further automated heal
// attempts.
type HealerEntry struct {
	Fingerprint string            `json:"fingerprint"`
	Status      HealerEntryStatus `json:"status"`
	Occurrences int               `json:"occurrences"`
	FirstSeen   string            `json:"first_seen"`
	LastSeen    string            `json:"last_seen"`
	LastSample  string            `json:"last_sample"`
}

// SentinelEntry tracks a per-file refactor cooldown.
type SentinelEntry struct {
	FilePath     string `json:"file_path"`
	LastRefactor string `json:"last_refactor"`
	CooldownUnt  string `json:"cooldown_until"`
}

// SuggestionCacheEntry is one harvested suggestion cached between
// harvest runs, deduplicated by title.
type SuggestionCacheEntry struct {
	HarvestItem
	HarvestedAt string `json:"harvested_at"`
}
