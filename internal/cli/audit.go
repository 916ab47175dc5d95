package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hookwatch/internal/audit"
)

var (
	tailLines  int
	tailFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditStatsCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditTailCmd.Flags().StringVarP(&tailFormat, "format", "f", "line", "Output format (line|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
	Long:  "Commands for verifying and inspecting the hash-chained decision log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify hash chain integrity of an audit log",
	Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Show recent audit log entries",
	Long:  "Reads the last N entries from the JSONL audit log.\nThe line format is: [timestamp] DECISION - tool - details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditTail(cmd.OutOrStdout(), args[0])
	},
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats <path>",
	Short: "Summarize decisions, tools and rules in an audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuditStats(cmd.OutOrStdout(), args[0])
	},
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(args[0])
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditTail(w io.Writer, path string) error {
	entries, err := audit.Tail(path, tailLines)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if tailFormat == "json" {
			out, _ := json.MarshalIndent(e, "", "  ")
			fmt.Fprintln(w, string(out))
			continue
		}
		fmt.Fprintln(w, audit.FormatLine(e))
	}
	return nil
}

func runAuditStats(w io.Writer, path string) error {
	stats, err := audit.ComputeStats(path)
	if err != nil {
		return err
	}
	fmt.Fprint(w, audit.FormatStats(stats))
	return nil
}
