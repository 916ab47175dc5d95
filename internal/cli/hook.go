package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/audit"
	"github.com/ppiankov/hookwatch/internal/hook"
	"github.com/ppiankov/hookwatch/internal/redact"
	"github.com/ppiankov/hookwatch/internal/rules"
	"github.com/ppiankov/hookwatch/internal/session"
	"github.com/ppiankov/hookwatch/internal/skills"
)

var (
	hookRules     string
	hookAuditLog  string
	hookVerbose   bool
	hookLanguage  string
	hookSkillsDir string
)

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.AddCommand(hookPreToolUseCmd)
	hookCmd.AddCommand(hookSessionStartCmd)
	hookCmd.AddCommand(hookPromptSubmitCmd)

	rootCmd.AddCommand(preToolUseCmd)
	for _, c := range []*cobra.Command{hookPreToolUseCmd, preToolUseCmd} {
		c.Flags().StringVar(&hookRules, "rules", "", "Path to rules YAML (default: $HOOKWATCH_RULES or ~/.hookwatch/rules.yaml)")
		c.Flags().StringVar(&hookAuditLog, "audit-log", "", "Append a hash-chained JSONL entry per decision (default: $HOOKWATCH_AUDIT_LOG)")
		c.Flags().BoolVarP(&hookVerbose, "verbose", "v", false, "Print a one-line decision summary to stderr")
	}

	hookCmd.PersistentFlags().StringVar(&hookLanguage, "language", "English", "Response language reminder for session hooks (empty to omit)")
	hookPromptSubmitCmd.Flags().StringVar(&hookSkillsDir, "skills-dir", skills.DefaultDir, "Directory of skill markdown files")
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Host hook entry points (read JSON on stdin)",
}

var hookPreToolUseCmd = &cobra.Command{
	Use:     "pre-tool-use",
	Aliases: []string{"pretooluse"},
	Short:   "Classify one proposed tool call",
	Long: "Reads a single JSON payload ({\"tool_name\", \"tool_input\"}) from stdin and writes\n" +
		"{\"decision\": \"allow|warn|block\", \"reason\": \"...\"} to stdout.\n\n" +
		"Exit code 1 for block, 0 for warn and allow. Malformed input and unreadable\n" +
		"rule files are blocked.",
	Args: cobra.NoArgs,
	Run:  preToolUseMain,
}

// preToolUseCmd is the top-level shorthand kept for existing hook configs.
var preToolUseCmd = &cobra.Command{
	Use:    "pre-tool-use",
	Short:  "Alias for 'hook pre-tool-use'",
	Hidden: true,
	Args:   cobra.NoArgs,
	Run:    preToolUseMain,
}

var hookSessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Print the session banner (language, open TODO items, quick commands)",
	Args:  cobra.NoArgs,
	RunE:  runSessionStart,
}

var hookPromptSubmitCmd = &cobra.Command{
	Use:   "user-prompt-submit",
	Short: "Print the skill-activation instruction for the project's skills",
	Args:  cobra.NoArgs,
	RunE:  runPromptSubmit,
}

func preToolUseMain(cmd *cobra.Command, args []string) {
	code := runPreToolUse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if code != 0 {
		os.Exit(code)
	}
}

func runPreToolUse(ctx context.Context, in io.Reader, out, errOut io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	rs, _, rulesErr := rules.LoadWithHash(resolveRulesPath(hookRules))

	r := &hook.Runner{Rules: rs, RulesErr: rulesErr, Diag: errOut}

	if path := resolveAuditLog(hookAuditLog); path != "" {
		log, err := audit.Open(path)
		if err != nil {
			fmt.Fprintf(errOut, "audit: %v\n", err)
		} else {
			defer log.Close()
			r.Recorder = log
		}
	}
	if hookVerbose {
		r.Recorder = verboseRecorder{next: r.Recorder, w: errOut}
	}

	return r.PreToolUse(ctx, in, out)
}

// verboseRecorder echoes each decision to stderr before forwarding it.
type verboseRecorder struct {
	next audit.Recorder
	w    io.Writer
}

func (v verboseRecorder) Record(e audit.Entry) error {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(audit.TimestampFormat)
	}
	line := e
	line.Details = audit.TruncateDetails(redact.Secrets(e.Details))
	fmt.Fprintln(v.w, audit.FormatLine(line))
	if v.next == nil {
		return nil
	}
	return v.next.Record(e)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	b, err := session.Collect(root, hookLanguage)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), b.Render())
	return nil
}

func runPromptSubmit(cmd *cobra.Command, args []string) error {
	found, err := skills.Discover(hookSkillsDir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), skills.Prompt(found, hookLanguage))
	return nil
}
