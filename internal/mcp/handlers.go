package mcp

import (
	"context"
	"encoding/json"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/hookwatch/internal/classify"
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

// --- Input/Output types ---

// ClassifyInput defines parameters for the hookwatch_classify and
// hookwatch_explain tools.
type ClassifyInput struct {
	ToolName   string         `json:"tool_name" jsonschema:"tool being invoked (Bash/Write/Edit/MultiEdit)"`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"tool parameters (command, file_path, dangerouslyDisableSandbox)"`
}

// ClassifyOutput contains the safety decision.
type ClassifyOutput struct {
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
	RuleID    string `json:"rule_id,omitempty"`
	RulesHash string `json:"rules_hash,omitempty"`
}

// ExplainOutput lists every matching rule alongside the decision.
type ExplainOutput struct {
	Decision string           `json:"decision"`
	RuleID   string           `json:"rule_id,omitempty"`
	Matches  []classify.Match `json:"matches"`
}

// RulesInput defines parameters for the hookwatch_rules tool.
type RulesInput struct {
	Severity string `json:"severity,omitempty" jsonschema:"filter by severity (blocking/sensitive/protected/system_dir)"`
}

// RulesOutput lists the active rules.
type RulesOutput struct {
	RulesHash  string      `json:"rules_hash"`
	ShellTools []string    `json:"shell_tools"`
	WriteTools []string    `json:"write_tools"`
	Rules      []RuleEntry `json:"rules"`
}

// RuleEntry describes a single rule.
type RuleEntry struct {
	ID            string `json:"id"`
	Severity      string `json:"severity"`
	Pattern       string `json:"pattern"`
	Label         string `json:"label"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// --- Handlers ---

func (s *Server) handleClassify(ctx context.Context, req *mcpsdk.CallToolRequest, input ClassifyInput) (*mcpsdk.CallToolResult, ClassifyOutput, error) {
	rs, hash := s.snapshot()
	action := model.NewActionRequest(input.ToolName, input.Parameters)

	start := time.Now()
	d := classify.Classify(action, rs)
	s.metrics.RecordDecision(ctx, SurfaceMCP, action.ToolName, d, time.Since(start))
	s.recordAudit(action, d, paramDetails(input.Parameters), hash)

	out := ClassifyOutput{
		Decision:  string(d.Verdict),
		Reason:    d.Reason,
		RuleID:    d.RuleID,
		RulesHash: hash,
	}
	if d.Verdict == model.Block {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleExplain(ctx context.Context, req *mcpsdk.CallToolRequest, input ClassifyInput) (*mcpsdk.CallToolResult, ExplainOutput, error) {
	rs, _ := s.snapshot()
	exp := classify.Explain(model.NewActionRequest(input.ToolName, input.Parameters), rs)

	return nil, ExplainOutput{
		Decision: string(exp.Decision.Verdict),
		RuleID:   exp.Decision.RuleID,
		Matches:  exp.Matches,
	}, nil
}

func (s *Server) handleRules(ctx context.Context, req *mcpsdk.CallToolRequest, input RulesInput) (*mcpsdk.CallToolResult, RulesOutput, error) {
	rs, hash := s.snapshot()

	var list []rules.CompiledRule
	if input.Severity == "" {
		list = rs.All()
	} else {
		sev, err := rules.ParseSeverity(input.Severity)
		if err != nil {
			return nil, RulesOutput{}, err
		}
		list = rs.Rules(sev)
	}

	raw := rs.Raw()
	out := RulesOutput{
		RulesHash:  hash,
		ShellTools: raw.ShellTools,
		WriteTools: raw.WriteTools,
		Rules:      make([]RuleEntry, 0, len(list)),
	}
	for _, r := range list {
		out.Rules = append(out.Rules, RuleEntry{
			ID:            r.ID,
			Severity:      string(r.Severity),
			Pattern:       r.Pattern,
			Label:         r.Label,
			CaseSensitive: r.CaseSensitive,
		})
	}
	return nil, out, nil
}

func paramDetails(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	b, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(b)
}
