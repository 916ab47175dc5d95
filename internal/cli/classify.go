package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/classify"
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

var (
	classifyTool      string
	classifyCommand   string
	classifyFile      string
	classifyNoSandbox bool
	classifyRules     string
	classifyExplain   bool
	classifyFormat    string
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyTool, "tool", "Bash", "Tool name (Bash, Write, Edit, MultiEdit, ...)")
	classifyCmd.Flags().StringVar(&classifyCommand, "command", "", "Shell command parameter")
	classifyCmd.Flags().StringVar(&classifyFile, "file", "", "file_path parameter")
	classifyCmd.Flags().BoolVar(&classifyNoSandbox, "no-sandbox", false, "Set dangerouslyDisableSandbox=true")
	classifyCmd.Flags().StringVar(&classifyRules, "rules", "", "Path to rules YAML (default: $HOOKWATCH_RULES or ~/.hookwatch/rules.yaml)")
	classifyCmd.Flags().BoolVar(&classifyExplain, "explain", false, "List every matching rule, not just the decisive one")
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "Output format (text|json)")
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Dry-run the classifier on a command or file path",
	Long: "Builds a request from flags and prints the decision without reading stdin.\n\n" +
		"Examples:\n" +
		"  hookwatch classify --command 'rm -rf /'\n" +
		"  hookwatch classify --tool Write --file /etc/hosts --explain\n\n" +
		"Exit code 1 for block, 0 for warn and allow.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := runClassify(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code := v.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func classifyRequest() model.ActionRequest {
	params := map[string]any{}
	if classifyCommand != "" {
		params[model.ParamCommand] = classifyCommand
	}
	if classifyFile != "" {
		params[model.ParamFilePath] = classifyFile
	}
	if classifyNoSandbox {
		params[model.ParamDisableSandbox] = true
	}
	return model.NewActionRequest(classifyTool, params)
}

func runClassify(w io.Writer) (model.Verdict, error) {
	rs, err := rules.Load(resolveRulesPath(classifyRules))
	if err != nil {
		return model.Block, fmt.Errorf("load rules: %w", err)
	}

	exp := classify.Explain(classifyRequest(), rs)
	d := exp.Decision

	switch classifyFormat {
	case "json":
		var v any = d
		if classifyExplain {
			v = exp
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return d.Verdict, fmt.Errorf("marshal decision: %w", err)
		}
		fmt.Fprintln(w, string(out))
	default:
		fmt.Fprintf(w, "Decision: %s", strings.ToUpper(string(d.Verdict)))
		if d.RuleID != "" {
			fmt.Fprintf(w, " (%s)", d.RuleID)
		}
		fmt.Fprintf(w, "\n\n%s\n", d.Reason)
		if classifyExplain {
			fmt.Fprint(w, formatMatches(exp.Matches))
		}
	}
	return d.Verdict, nil
}

func formatMatches(matches []classify.Match) string {
	var b strings.Builder
	b.WriteString("\nMatching rules (evaluation order):\n")
	if len(matches) == 0 {
		b.WriteString("  none\n")
		return b.String()
	}
	for _, m := range matches {
		marker := " "
		if m.Decisive {
			marker = "*"
		}
		fmt.Fprintf(&b, "  %s %-10s %-22s %s\n", marker, m.Severity, m.RuleID, m.Label)
	}
	return b.String()
}
