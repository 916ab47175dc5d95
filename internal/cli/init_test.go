package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/hookwatch/internal/rules"
	"github.com/ppiankov/hookwatch/internal/telemetry"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv(envRules, "")
	t.Setenv(envAuditLog, "")
	t.Setenv(telemetry.EnvEnabled, "")
	t.Setenv(telemetry.EnvEndpoint, "")
	return tmpDir
}

func TestRunInit_WritesDefaults(t *testing.T) {
	home := isolate(t)
	initForce = false

	var out bytes.Buffer
	if err := runInit(&out); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	path := filepath.Join(home, ".hookwatch", "rules.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("rules.yaml not created: %v", err)
	}
	if string(data) != rules.DefaultRulesYAML() {
		t.Error("rules.yaml does not match the built-in template")
	}
	if !strings.Contains(out.String(), "Created "+path) {
		t.Errorf("unexpected output: %s", out.String())
	}

	// The written file must load to the same rule set as the defaults.
	rs, err := rules.Load(path)
	if err != nil {
		t.Fatalf("written rules do not load: %v", err)
	}
	if len(rs.All()) != len(rules.MustDefault().All()) {
		t.Error("written rules differ from defaults")
	}
}

func TestRunInit_NoOverwriteWithoutForce(t *testing.T) {
	home := isolate(t)

	configDir := filepath.Join(home, ".hookwatch")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Pre-create rules.yaml with sentinel content.
	sentinel := "# sentinel content\n"
	rulesPath := filepath.Join(configDir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(sentinel), 0o644); err != nil {
		t.Fatal(err)
	}

	initForce = false
	var out bytes.Buffer
	if err := runInit(&out); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, _ := os.ReadFile(rulesPath)
	if string(data) != sentinel {
		t.Error("rules.yaml was overwritten without --force")
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("expected already-exists notice, got %s", out.String())
	}
}

func TestRunInit_ForceOverwrites(t *testing.T) {
	home := isolate(t)

	configDir := filepath.Join(home, ".hookwatch")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}

	sentinel := "# sentinel content\n"
	rulesPath := filepath.Join(configDir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(sentinel), 0o644); err != nil {
		t.Fatal(err)
	}

	initForce = true
	defer func() { initForce = false }()

	if err := runInit(&bytes.Buffer{}); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	// rules.yaml SHOULD be overwritten.
	data, _ := os.ReadFile(rulesPath)
	if string(data) == sentinel {
		t.Error("rules.yaml was not overwritten with --force")
	}
}
