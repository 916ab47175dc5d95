// Package install merges hookwatch hook entries into a host settings.json
// while preserving every unrelated setting and hook.
package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Event names the host uses for the hooks hookwatch registers.
const (
	EventPreToolUse       = "PreToolUse"
	EventSessionStart     = "SessionStart"
	EventUserPromptSubmit = "UserPromptSubmit"
)

// DefaultMatcher selects the tools the pre-tool-use hook is invoked for.
const DefaultMatcher = "Bash|Write|Edit|MultiEdit"

// HookEntry is a single hook command, e.g. {"type": "command", "command": "..."}.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a hook group with an optional tool matcher.
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// Options controls which hooks are generated.
type Options struct {
	// Binary is the command used to invoke hookwatch.
	Binary string

	// RulesPath, when set, is passed to pre-tool-use via --rules.
	RulesPath string

	// AuditLog, when set, is passed to pre-tool-use via --audit-log.
	AuditLog string

	// SkipSession omits the SessionStart and UserPromptSubmit hooks.
	SkipSession bool
}

// Hooks returns the hook groups to install, keyed by event.
func Hooks(opts Options) map[string][]HookGroup {
	bin := opts.Binary
	if bin == "" {
		bin = "hookwatch"
	}

	pre := bin + " hook pre-tool-use"
	if opts.RulesPath != "" {
		pre += " --rules " + quote(opts.RulesPath)
	}
	if opts.AuditLog != "" {
		pre += " --audit-log " + quote(opts.AuditLog)
	}

	out := map[string][]HookGroup{
		EventPreToolUse: {{
			Matcher: DefaultMatcher,
			Hooks:   []HookEntry{{Type: "command", Command: pre, Timeout: 10}},
		}},
	}
	if !opts.SkipSession {
		out[EventSessionStart] = []HookGroup{{
			Hooks: []HookEntry{{Type: "command", Command: bin + " hook session-start"}},
		}}
		out[EventUserPromptSubmit] = []HookGroup{{
			Hooks: []HookEntry{{Type: "command", Command: bin + " hook user-prompt-submit"}},
		}}
	}
	return out
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t'\"") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// DefaultSettingsPath returns ~/.claude/settings.json.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// LoadSettings reads settings.json. A missing file yields empty settings.
func LoadSettings(path string) (map[string]any, error) {
	raw := make(map[string]any)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse existing settings: %w", err)
		}
		return raw, nil
	}
	if os.IsNotExist(err) {
		return raw, nil
	}
	return nil, fmt.Errorf("read settings: %w", err)
}

// Merge replaces any previously installed hookwatch groups with hooks and
// returns the events it touched, sorted. Groups belonging to other tools are
// kept in their original order.
func Merge(settings map[string]any, hooks map[string][]HookGroup) []string {
	hooksMap := make(map[string]any)
	if existing, ok := settings["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}

	var events []string
	for event, newGroups := range hooks {
		groups := foreignGroups(hooksMap[event])
		for _, g := range newGroups {
			groups = append(groups, groupToMap(g))
		}
		hooksMap[event] = groups
		events = append(events, event)
	}
	sort.Strings(events)

	settings["hooks"] = hooksMap
	return events
}

// Installed reports whether settings already contain a hookwatch pre-tool-use hook.
func Installed(settings map[string]any) bool {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	groups, _ := hooksMap[EventPreToolUse].([]any)
	return len(groups) != len(foreignGroups(groups))
}

func foreignGroups(v any) []any {
	groups, _ := v.([]any)
	out := make([]any, 0, len(groups))
	for _, g := range groups {
		if !isOwnGroup(g) {
			out = append(out, g)
		}
	}
	return out
}

func isOwnGroup(g any) bool {
	gm, ok := g.(map[string]any)
	if !ok {
		return false
	}
	entries, _ := gm["hooks"].([]any)
	for _, e := range entries {
		em, ok := e.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := em["command"].(string)
		if isOwnCommand(cmd) {
			return true
		}
	}
	return false
}

// isOwnCommand matches "hookwatch hook ..." and the older top-level
// "hookwatch pre-tool-use" form.
func isOwnCommand(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) < 2 || (fields[1] != "hook" && fields[1] != "pre-tool-use") {
		return false
	}
	return strings.TrimSuffix(filepath.Base(strings.Trim(fields[0], `'"`)), ".exe") == "hookwatch"
}

func groupToMap(g HookGroup) map[string]any {
	entries := make([]any, 0, len(g.Hooks))
	for _, h := range g.Hooks {
		e := map[string]any{"type": h.Type, "command": h.Command}
		if h.Timeout > 0 {
			e["timeout"] = h.Timeout
		}
		entries = append(entries, e)
	}
	m := map[string]any{"hooks": entries}
	if g.Matcher != "" {
		m["matcher"] = g.Matcher
	}
	return m
}

// Backup copies an existing settings file next to itself with a timestamp
// suffix and returns the backup path, or "" if there was nothing to back up.
func Backup(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read settings: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}

// Render returns the indented JSON that WriteSettings would write.
func Render(settings map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteSettings writes settings as indented JSON, creating the parent directory.
func WriteSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := Render(settings)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
