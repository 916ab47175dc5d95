package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/install"
)

var (
	installSettings    string
	installBinary      string
	installRules       string
	installAuditLog    string
	installDryRun      bool
	installSkipSession bool
)

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVar(&installSettings, "settings", "", "Path to settings.json (default: ~/.claude/settings.json)")
	installCmd.Flags().StringVar(&installBinary, "binary", "", "Command used to invoke hookwatch (default: this executable)")
	installCmd.Flags().StringVar(&installRules, "rules", "", "Rules file passed to the pre-tool-use hook")
	installCmd.Flags().StringVar(&installAuditLog, "audit-log", "", "Audit log passed to the pre-tool-use hook")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the merged settings without writing")
	installCmd.Flags().BoolVar(&installSkipSession, "pre-tool-use-only", false, "Skip the session-start and user-prompt-submit hooks")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register hookwatch hooks in the assistant's settings.json",
	Long: "Merges PreToolUse (and optionally SessionStart/UserPromptSubmit) hook entries\n" +
		"into settings.json. Other settings and other tools' hooks are preserved; a\n" +
		"previous hookwatch entry is replaced. The original file is backed up first.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.OutOrStdout())
	},
}

func runInstall(w io.Writer) error {
	path := installSettings
	if path == "" {
		p, err := install.DefaultSettingsPath()
		if err != nil {
			return err
		}
		path = p
	}

	bin := installBinary
	if bin == "" {
		if exe, err := os.Executable(); err == nil {
			bin = exe
		}
	}

	settings, err := install.LoadSettings(path)
	if err != nil {
		return err
	}
	replacing := install.Installed(settings)

	events := install.Merge(settings, install.Hooks(install.Options{
		Binary:      bin,
		RulesPath:   installRules,
		AuditLog:    installAuditLog,
		SkipSession: installSkipSession,
	}))

	if installDryRun {
		data, err := install.Render(settings)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "[dry-run] Would write to", path)
		fmt.Fprint(w, string(data))
		return nil
	}

	backup, err := install.Backup(path, time.Now())
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintf(w, "Backed up existing settings to %s\n", backup)
	}
	if err := install.WriteSettings(path, settings); err != nil {
		return err
	}

	verb := "Installed"
	if replacing {
		verb = "Updated"
	}
	fmt.Fprintf(w, "%s hookwatch hooks in %s\n", verb, path)
	for _, e := range events {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}
