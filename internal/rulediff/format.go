package rulediff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Rules diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rules diff: %s → %s\n", r.OldPath, r.NewPath)
	fmt.Fprintf(&b, "  %s → %s\n", r.OldHash, r.NewHash)

	if len(r.Changes) > 0 {
		b.WriteString("\n")
		for _, c := range r.Changes {
			switch c.Comment {
			case "added":
				fmt.Fprintf(&b, "  %s: + %s\n", c.Field, c.New)
			case "removed":
				fmt.Fprintf(&b, "  %s: - %s\n", c.Field, c.Old)
			}
		}
	}

	if len(r.RuleChanges) > 0 {
		b.WriteString("\n  Rules:\n")
		for _, rc := range r.RuleChanges {
			var mark string
			switch rc.Type {
			case "added":
				mark = "+"
			case "removed":
				mark = "-"
			default:
				mark = "~"
			}
			fmt.Fprintf(&b, "    %s %s", mark, rc.Rule)
			if rc.Comment != "" {
				fmt.Fprintf(&b, "  (%s)", rc.Comment)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}
