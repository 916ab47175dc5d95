package classify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/hookwatch/internal/rules"
)

const confirmPrompt = `Reply "yes" to continue or "no" to cancel.`

// consequences lists what a blocked category can do to the machine.
var consequences = map[string][]string{
	"filesystem destruction":  {"system files deleted", "permanent data loss"},
	"database destruction":    {"tables or schemas dropped", "permanent data loss"},
	"disk formatting":         {"filesystem wiped", "permanent data loss"},
	"raw block device write":  {"partition table or filesystem overwritten", "unbootable system"},
	"privilege escalation":    {"root shell or world-writable system files", "security boundary bypassed"},
	"remote script execution": {"unreviewed code executed", "supply chain compromise"},
	"fork bomb":               {"process table exhausted", "machine unresponsive"},
}

var defaultConsequences = []string{"system file damage", "permanent data loss", "disk formatting"}

func blockCommandReason(command string, r rules.CompiledRule) string {
	var b strings.Builder
	b.WriteString("Dangerous command blocked.\n\n")
	fmt.Fprintf(&b, "Command: %s\n", command)
	b.WriteString("Risk level: critical\n")
	fmt.Fprintf(&b, "Risk category: %s\n", r.Label)
	fmt.Fprintf(&b, "Matched rule: %s (%s)\n\n", r.ID, r.Pattern)
	b.WriteString("This command may cause:\n")
	items, ok := consequences[r.Label]
	if !ok {
		items = defaultConsequences
	}
	for _, c := range items {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nIf this is intended, run it manually in a terminal.")
	return b.String()
}

func warnCommandReason(command string, r rules.CompiledRule) string {
	var b strings.Builder
	b.WriteString("Sensitive operation.\n\n")
	fmt.Fprintf(&b, "Operation: %s\n", r.Label)
	fmt.Fprintf(&b, "Command: %s\n", command)
	b.WriteString("Risk level: medium\n")
	fmt.Fprintf(&b, "Matched rule: %s\n\n", r.ID)
	b.WriteString("Before continuing:\n")
	b.WriteString("- check the command arguments\n")
	b.WriteString("- make sure important data is backed up\n")
	b.WriteString("- preview with --dry-run where supported\n\n")
	b.WriteString(confirmPrompt)
	return b.String()
}

func protectedFileReason(tool, path string, r rules.CompiledRule) string {
	var b strings.Builder
	b.WriteString("Protected file.\n\n")
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Operation: %s\n", tool)
	fmt.Fprintf(&b, "Protected as: %s\n", r.Label)
	fmt.Fprintf(&b, "Matched rule: %s\n\n", r.ID)
	b.WriteString("Before continuing:\n")
	b.WriteString("- confirm the new content is correct\n")
	b.WriteString("- back up the original file\n")
	b.WriteString("- keep the file under version control\n\n")
	b.WriteString(confirmPrompt)
	return b.String()
}

func systemDirReason(path string, r rules.CompiledRule) string {
	var b strings.Builder
	b.WriteString("Write to system directory blocked.\n\n")
	fmt.Fprintf(&b, "Target path: %s\n", path)
	fmt.Fprintf(&b, "Directory: %s\n", r.Label)
	b.WriteString("Risk level: critical\n")
	fmt.Fprintf(&b, "Matched rule: %s (%s)\n\n", r.ID, r.Pattern)
	b.WriteString("This write may cause:\n")
	b.WriteString("- system instability\n")
	b.WriteString("- security holes\n")
	b.WriteString("- unrecoverable damage\n\n")
	b.WriteString("Work inside the project or user space instead.")
	return b.String()
}

func sandboxReason() string {
	return "Sandbox disable requested.\n\n" +
		"Parameter: dangerouslyDisableSandbox = true\n" +
		"Risk level: high\n\n" +
		"The command will be able to reach:\n" +
		"- the full filesystem\n" +
		"- network resources\n" +
		"- system processes\n\n" +
		"Make sure the command source is trusted. " + confirmPrompt
}
