package audit

import (
	"fmt"
	"sort"
	"strings"
)

// FormatLine renders an entry as a one-line human log record:
//
//	[2025-01-15T10:30:00.000Z] BLOCK - Bash - {"command":"rm -rf /"}
func FormatLine(e Entry) string {
	return fmt.Sprintf("[%s] %s - %s - %s", e.Timestamp, strings.ToUpper(e.Decision), e.Tool, e.Details)
}

// FormatStats renders Stats as aligned text.
func FormatStats(s *Stats) string {
	var b strings.Builder

	if s.Total == 0 {
		b.WriteString("No entries.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Entries: %d (%s to %s)\n", s.Total, s.First, s.Last)
	if s.Malformed > 0 {
		fmt.Fprintf(&b, "Malformed lines skipped: %d\n", s.Malformed)
	}

	b.WriteString("\nDecisions:\n")
	for _, d := range []string{"allow", "warn", "block"} {
		fmt.Fprintf(&b, "  %-8s %d\n", d, s.ByDecision[d])
	}

	b.WriteString("\nTools:\n")
	tools := make([]string, 0, len(s.ByTool))
	for t := range s.ByTool {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	for _, t := range tools {
		fmt.Fprintf(&b, "  %-12s %d\n", t, s.ByTool[t])
	}

	if top := s.TopRules(10); len(top) > 0 {
		b.WriteString("\nTop rules:\n")
		for _, rc := range top {
			fmt.Fprintf(&b, "  %-24s %d\n", rc.RuleID, rc.Count)
		}
	}

	return b.String()
}
