package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/rulediff"
	"github.com/ppiankov/hookwatch/internal/rules"
)

var (
	rulesPath     string
	rulesSeverity string
	rulesFormat   string
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesDiffCmd)
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to rules YAML (default: $HOOKWATCH_RULES or ~/.hookwatch/rules.yaml)")
	rulesListCmd.Flags().StringVar(&rulesSeverity, "severity", "", "Only list one table (blocking|sensitive|protected|system_dir)")
	rulesListCmd.Flags().StringVarP(&rulesFormat, "format", "f", "text", "Output format (text|json)")
	rulesDiffCmd.Flags().StringVarP(&rulesFormat, "format", "f", "text", "Output format (text|json)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the active rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesList(cmd.OutOrStdout())
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one rule by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesShow(cmd.OutOrStdout(), args[0])
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile the rules file and report errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesValidate(cmd.OutOrStdout())
	},
}

var rulesDiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two rule files",
	Long: `Compare two rule files and report tool list and rule changes.

Use "default" for either argument to compare against the built-in rules.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesDiff(cmd.OutOrStdout(), args[0], args[1])
	},
}

func loadRulesForCLI() (*rules.Compiled, error) {
	rs, err := rules.Load(resolveRulesPath(rulesPath))
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rs, nil
}

func runRulesList(w io.Writer) error {
	rs, err := loadRulesForCLI()
	if err != nil {
		return err
	}

	list := rs.All()
	if rulesSeverity != "" {
		sev, err := rules.ParseSeverity(rulesSeverity)
		if err != nil {
			return err
		}
		list = rs.Rules(sev)
	}

	if rulesFormat == "json" {
		out, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tID\tLABEL\tPATTERN")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Severity, r.ID, r.Label, r.Pattern)
	}
	return tw.Flush()
}

func runRulesShow(w io.Writer, id string) error {
	rs, err := loadRulesForCLI()
	if err != nil {
		return err
	}
	r, err := rs.Lookup(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "ID:        %s\n", r.ID)
	fmt.Fprintf(w, "Severity:  %s\n", r.Severity)
	fmt.Fprintf(w, "Label:     %s\n", r.Label)
	fmt.Fprintf(w, "Pattern:   %s\n", r.Pattern)
	fmt.Fprintf(w, "Case:      %s\n", caseMode(r.CaseSensitive))
	return nil
}

func caseMode(sensitive bool) string {
	if sensitive {
		return "sensitive"
	}
	return "insensitive"
}

func runRulesValidate(w io.Writer) error {
	path := resolveRulesPath(rulesPath)
	rs, hash, err := rules.LoadWithHash(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = rules.DefaultPath()
	}
	fmt.Fprintf(w, "OK: %d rules (%s)\n", len(rs.All()), path)
	fmt.Fprintf(w, "Hash: %s\n", hash)
	return nil
}

func loadRulesArg(arg string) (*rules.Compiled, error) {
	if arg == "default" {
		return rules.MustDefault(), nil
	}
	if _, err := os.Stat(arg); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", arg, err)
	}
	rs, err := rules.Load(arg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", arg, err)
	}
	return rs, nil
}

func runRulesDiff(w io.Writer, oldArg, newArg string) error {
	oldRules, err := loadRulesArg(oldArg)
	if err != nil {
		return err
	}
	newRules, err := loadRulesArg(newArg)
	if err != nil {
		return err
	}

	result := rulediff.Diff(oldRules, newRules)
	result.OldPath = oldArg
	result.NewPath = newArg

	if rulesFormat == "json" {
		out, err := rulediff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	}
	fmt.Fprint(w, rulediff.FormatText(result))
	return nil
}
