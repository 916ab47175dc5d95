package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/audit"
	"github.com/ppiankov/hookwatch/internal/install"
	"github.com/ppiankov/hookwatch/internal/rules"
	"github.com/ppiankov/hookwatch/internal/skills"
	"github.com/ppiankov/hookwatch/internal/telemetry"
)

var doctorSettings string

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorSettings, "settings", "", "Path to settings.json (default: ~/.claude/settings.json)")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check rules, hook registration and audit log health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.OutOrStdout())
	},
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func doctorChecks() []checkResult {
	var checks []checkResult

	// 1. Binary location and version.
	if execPath, _ := os.Executable(); execPath != "" {
		checks = append(checks, checkResult{
			label:  "hookwatch binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "hookwatch binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Rules file. Missing is fine: built-in defaults apply.
	rulesFile := resolveRulesPath("")
	if rulesFile == "" {
		rulesFile = rules.DefaultPath()
	}
	if _, statErr := os.Stat(rulesFile); statErr != nil {
		checks = append(checks, checkResult{
			label:  "rules",
			ok:     true,
			detail: "built-in defaults (no " + rulesFile + ")",
		})
	} else if rs, err := rules.Load(rulesFile); err != nil {
		checks = append(checks, checkResult{
			label:  "rules",
			ok:     false,
			detail: err.Error(),
			fix:    "hookwatch rules validate",
		})
	} else {
		checks = append(checks, checkResult{
			label:  "rules",
			ok:     true,
			detail: fmt.Sprintf("%s (%d rules)", rulesFile, len(rs.All())),
		})
	}

	// 3. Hook registration.
	settingsPath := doctorSettings
	if settingsPath == "" {
		settingsPath, _ = install.DefaultSettingsPath()
	}
	settings, err := install.LoadSettings(settingsPath)
	switch {
	case err != nil:
		checks = append(checks, checkResult{
			label:  "settings.json",
			ok:     false,
			detail: err.Error(),
		})
	case install.Installed(settings):
		checks = append(checks, checkResult{
			label:  "pre-tool-use hook",
			ok:     true,
			detail: "registered in " + settingsPath,
		})
	default:
		checks = append(checks, checkResult{
			label:  "pre-tool-use hook",
			ok:     false,
			detail: "not registered in " + settingsPath,
			fix:    "hookwatch install",
		})
	}

	// 4. Audit log, when configured.
	if logPath := resolveAuditLog(""); logPath != "" {
		if _, err := os.Stat(logPath); err != nil {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     true,
				detail: logPath + " (not created yet)",
			})
		} else if r := audit.Verify(logPath); r.Valid {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     true,
				detail: fmt.Sprintf("%s (%d entries, chain intact)", logPath, r.Lines),
			})
		} else {
			checks = append(checks, checkResult{
				label:  "audit log",
				ok:     false,
				detail: fmt.Sprintf("chain broken at line %d: %s", r.ErrorLine, r.Error),
				fix:    "hookwatch audit verify " + logPath,
			})
		}
	}

	// 5. Project skills (informational).
	var skipped bytes.Buffer
	if found, err := skills.Discover(skills.DefaultDir, &skipped); err == nil {
		detail := fmt.Sprintf("%d in %s", len(found), skills.DefaultDir)
		if n := bytes.Count(skipped.Bytes(), []byte("\n")); n > 0 {
			detail += fmt.Sprintf(", %d skipped", n)
		}
		checks = append(checks, checkResult{
			label:  "skills",
			ok:     skipped.Len() == 0,
			detail: detail,
		})
	} else {
		checks = append(checks, checkResult{
			label:  "skills",
			ok:     false,
			detail: err.Error(),
		})
	}

	// 6. Metrics export for the MCP server.
	if cfg := telemetry.LoadConfig(); cfg.Enabled {
		if cfg.Endpoint == "" {
			checks = append(checks, checkResult{
				label:  "metrics",
				ok:     false,
				detail: telemetry.EnvEnabled + " is set but no endpoint is configured",
				fix:    "export " + telemetry.EnvEndpoint + "=host:4317",
			})
		} else {
			checks = append(checks, checkResult{
				label:  "metrics",
				ok:     true,
				detail: "OTLP export to " + cfg.Endpoint,
			})
		}
	}

	return checks
}

func runDoctor(w io.Writer) error {
	checks := doctorChecks()

	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(w, line)
	}

	if hasFailures {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
