package audit

import "unicode/utf8"

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// maxDetails bounds the tool input recorded per entry.
const maxDetails = 200

// maxReason bounds the decision reason, which may quote the command.
const maxReason = 4096

// Entry is one line in the hash-chained JSONL audit log.
// All fields are plain strings so json.Marshal field order is fixed and
// the line hash is reproducible.
type Entry struct {
	Timestamp    string `json:"ts"`
	InvocationID string `json:"invocation_id"`
	SessionID    string `json:"session_id,omitempty"`
	Event        string `json:"event"`
	Tool         string `json:"tool"`
	Details      string `json:"details"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason"`
	RuleID       string `json:"rule_id,omitempty"`
	RulesHash    string `json:"rules_hash"`
	PrevHash     string `json:"prev_hash"`
}

// TruncateDetails shortens tool input for logging.
func TruncateDetails(s string) string {
	return truncate(s, maxDetails)
}

// truncate cuts s to at most n bytes plus "...", backing off to a rune
// boundary so the result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
