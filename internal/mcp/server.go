package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/hookwatch/internal/audit"
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
	"github.com/ppiankov/hookwatch/internal/telemetry"
)

const (
	// EventMCP is the audit event name for decisions made over MCP.
	EventMCP = "MCPClassify"

	// SurfaceMCP labels metrics recorded by the MCP server.
	SurfaceMCP = "mcp"
)

// Config holds MCP server configuration.
type Config struct {
	RulesPath    string
	AuditLogPath string
	Version      string

	// Metrics receives decision and reload counts. Nil disables metrics.
	Metrics telemetry.Metrics
}

// Server wraps the MCP SDK server with the hookwatch classifier.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       Config
	auditLog  *audit.Log
	metrics   telemetry.Metrics

	mu        sync.RWMutex
	rules     *rules.Compiled
	rulesHash string
}

// New creates an MCP server with loaded rules and registered tools.
func New(cfg Config) (*Server, error) {
	rs, hash, err := rules.LoadWithHash(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}

	s := &Server{
		cfg:       cfg,
		auditLog:  auditLog,
		metrics:   metrics,
		rules:     rs,
		rulesHash: hash,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "hookwatch",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close flushes metrics and closes the audit log if configured.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.metrics.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "metrics: %v\n", err)
	}
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// RulesPath returns the configured rules file, resolving the default location.
func (s *Server) RulesPath() string {
	if s.cfg.RulesPath != "" {
		return s.cfg.RulesPath
	}
	return rules.DefaultPath()
}

// ReloadRules atomically swaps the compiled rule set.
// On error the previous rule set stays active.
func (s *Server) ReloadRules() error {
	rs, hash, err := rules.LoadWithHash(s.cfg.RulesPath)
	s.metrics.RecordReload(context.Background(), err)
	if err != nil {
		return fmt.Errorf("failed to reload rules: %w", err)
	}

	s.mu.Lock()
	s.rules = rs
	s.rulesHash = hash
	s.mu.Unlock()

	return nil
}

func (s *Server) snapshot() (*rules.Compiled, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules, s.rulesHash
}

func (s *Server) recordAudit(req model.ActionRequest, d model.Decision, details, hash string) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Record(audit.Entry{
		Event:     EventMCP,
		Tool:      req.ToolName,
		Details:   details,
		Decision:  string(d.Verdict),
		Reason:    d.Reason,
		RuleID:    d.RuleID,
		RulesHash: hash,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
	}
}

// registerTools adds all hookwatch tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hookwatch_classify",
		Description: "Classify a proposed tool call (tool name plus parameters) as allow, warn or block without executing it.",
	}, s.handleClassify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hookwatch_explain",
		Description: "List every rule that matches a proposed tool call and mark the one that decided the verdict.",
	}, s.handleExplain)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hookwatch_rules",
		Description: "List the active safety rules, optionally filtered by severity (blocking/sensitive/protected/system_dir).",
	}, s.handleRules)
}
