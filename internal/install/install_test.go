package install

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".claude", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHooks(t *testing.T) {
	h := Hooks(Options{Binary: "/usr/local/bin/hookwatch", RulesPath: "/home/me/my rules.yaml"})

	pre := h[EventPreToolUse]
	if len(pre) != 1 || pre[0].Matcher != DefaultMatcher {
		t.Fatalf("unexpected PreToolUse groups: %+v", pre)
	}
	cmd := pre[0].Hooks[0].Command
	if cmd != "/usr/local/bin/hookwatch hook pre-tool-use --rules '/home/me/my rules.yaml'" {
		t.Errorf("command = %q", cmd)
	}
	if _, ok := h[EventSessionStart]; !ok {
		t.Error("expected SessionStart hook")
	}

	h = Hooks(Options{SkipSession: true})
	if len(h) != 1 {
		t.Errorf("expected only PreToolUse with SkipSession, got %d events", len(h))
	}
	if h[EventPreToolUse][0].Hooks[0].Command != "hookwatch hook pre-tool-use" {
		t.Errorf("default binary not used: %q", h[EventPreToolUse][0].Hooks[0].Command)
	}
}

func TestMergePreservesForeignSettings(t *testing.T) {
	path := writeSettings(t, `{
  "model": "opus",
  "hooks": {
    "PreToolUse": [
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "other-guard check"}]},
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "/old/path/hookwatch hook pre-tool-use"}]}
    ],
    "Stop": [{"hooks": [{"type": "command", "command": "notify-send done"}]}]
  }
}`)

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if !Installed(settings) {
		t.Error("expected existing hookwatch hook to be detected")
	}

	events := Merge(settings, Hooks(Options{}))
	if strings.Join(events, ",") != "PreToolUse,SessionStart,UserPromptSubmit" {
		t.Errorf("events = %v", events)
	}

	if settings["model"] != "opus" {
		t.Error("unrelated setting lost")
	}
	hooks := settings["hooks"].(map[string]any)
	if _, ok := hooks["Stop"]; !ok {
		t.Error("unrelated hook event lost")
	}

	pre := hooks["PreToolUse"].([]any)
	if len(pre) != 2 {
		t.Fatalf("expected foreign + new group, got %d", len(pre))
	}
	first := pre[0].(map[string]any)["hooks"].([]any)[0].(map[string]any)
	if first["command"] != "other-guard check" {
		t.Errorf("foreign group should stay first, got %v", first["command"])
	}
	second := pre[1].(map[string]any)["hooks"].([]any)[0].(map[string]any)
	if second["command"] != "hookwatch hook pre-tool-use" {
		t.Errorf("old hookwatch group not replaced: %v", second["command"])
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	settings := map[string]any{}
	Merge(settings, Hooks(Options{}))
	first, _ := Render(settings)

	roundTrip := writeSettings(t, string(first))
	reloaded, err := LoadSettings(roundTrip)
	if err != nil {
		t.Fatal(err)
	}
	Merge(reloaded, Hooks(Options{}))
	second, _ := Render(reloaded)

	if string(first) != string(second) {
		t.Errorf("second merge changed settings:\n%s\n---\n%s", first, second)
	}
}

func TestMergeReplacesLegacyEntry(t *testing.T) {
	path := writeSettings(t, `{
  "hooks": {
    "PreToolUse": [
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "/usr/local/bin/hookwatch pre-tool-use"}]}
    ]
  }
}`)
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if !Installed(settings) {
		t.Fatal("legacy top-level entry should count as installed")
	}

	Merge(settings, Hooks(Options{Binary: "/usr/local/bin/hookwatch", SkipSession: true}))
	groups := settings["hooks"].(map[string]any)[EventPreToolUse].([]any)
	if len(groups) != 1 {
		t.Errorf("expected legacy entry replaced, got %d groups", len(groups))
	}
}

func TestIsOwnCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"hookwatch hook pre-tool-use", true},
		{"/opt/bin/hookwatch hook session-start", true},
		{`"/opt/bin/hookwatch" hook user-prompt-submit`, true},
		{"/usr/local/bin/hookwatch pre-tool-use --rules r.yaml", true},
		{"hookwatch check --scenario x", false},
		{"other hook pre-tool-use", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isOwnCommand(tt.cmd); got != tt.want {
			t.Errorf("isOwnCommand(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestLoadSettingsMissingAndInvalid(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || len(s) != 0 {
		t.Errorf("missing file: got %v, %v", s, err)
	}

	path := writeSettings(t, "{not json")
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestBackupAndWrite(t *testing.T) {
	path := writeSettings(t, `{"model":"opus"}`)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	backup, err := Backup(path, now)
	if err != nil {
		t.Fatal(err)
	}
	if backup != path+".backup.20260102-030405" {
		t.Errorf("backup path = %q", backup)
	}
	if data, _ := os.ReadFile(backup); string(data) != `{"model":"opus"}` {
		t.Errorf("backup content = %q", data)
	}

	fresh := filepath.Join(t.TempDir(), "nested", "settings.json")
	if b, err := Backup(fresh, now); err != nil || b != "" {
		t.Errorf("backup of missing file: %q, %v", b, err)
	}
	if err := WriteSettings(fresh, map[string]any{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(fresh); !strings.HasSuffix(string(data), "}\n") {
		t.Errorf("expected trailing newline, got %q", data)
	}
}
