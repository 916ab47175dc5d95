package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	hookmcp "github.com/ppiankov/hookwatch/internal/mcp"
	"github.com/ppiankov/hookwatch/internal/telemetry"
)

var (
	mcpRules    string
	mcpAuditLog string
	mcpWatch    bool
	mcpOTLP     string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpRules, "rules", "", "Path to rules YAML (default: $HOOKWATCH_RULES or ~/.hookwatch/rules.yaml)")
	mcpCmd.Flags().StringVar(&mcpAuditLog, "audit-log", "", "Append a hash-chained JSONL entry per classification")
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", false, "Hot-reload the rules file on change")
	mcpCmd.Flags().StringVar(&mcpOTLP, "otlp-endpoint", "", "Export decision metrics to this OTLP/gRPC collector (default: $HOOKWATCH_OTEL_ENDPOINT)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs hookwatch as an MCP (Model Context Protocol) server over stdio.\nExposes tools: hookwatch_classify, hookwatch_explain, hookwatch_rules.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelCfg := telemetry.LoadConfig()
	if mcpOTLP != "" {
		otelCfg.Endpoint = mcpOTLP
		otelCfg.Enabled = true
	}
	metrics, err := telemetry.Open(ctx, otelCfg, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: metrics disabled: %v\n", err)
	}

	cfg := hookmcp.Config{
		RulesPath:    resolveRulesPath(mcpRules),
		AuditLogPath: resolveAuditLog(mcpAuditLog),
		Version:      version,
		Metrics:      metrics,
	}

	srv, err := hookmcp.New(cfg)
	if err != nil {
		metrics.Close(ctx)
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if mcpWatch {
		reloader, err := hookmcp.NewReloader(srv, srv.RulesPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
		} else {
			go reloader.Run(ctx)
			fmt.Fprintf(os.Stderr, "Watching %s\n", srv.RulesPath())
		}
	}

	fmt.Fprintln(os.Stderr, "hookwatch MCP server running on stdio")
	return srv.Run(ctx)
}
