package classify

import (
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

// Match is one rule that matched during Explain.
type Match struct {
	RuleID   string         `json:"rule_id"`
	Severity model.Severity `json:"severity"`
	Pattern  string         `json:"pattern,omitempty"`
	Label    string         `json:"label"`
	Input    string         `json:"input"`
	Decisive bool           `json:"decisive"`
}

// Explanation pairs the decision with every rule that matched the request.
type Explanation struct {
	Decision model.Decision `json:"decision"`
	Matches  []Match        `json:"matches"`
}

// Explain lists every applicable rule matching req, in evaluation order.
// Only the rule named by the decision is marked decisive; the rest were
// shadowed by first-match-wins. The verdict is always Classify's.
func Explain(req model.ActionRequest, rs *rules.Compiled) Explanation {
	if rs == nil {
		rs = defaultRules
	}

	d := Classify(req, rs)
	exp := Explanation{Decision: d, Matches: []Match{}}

	add := func(sev model.Severity, input string) {
		for _, r := range rs.Matches(sev, input) {
			exp.Matches = append(exp.Matches, Match{
				RuleID:   r.ID,
				Severity: sev,
				Pattern:  r.Pattern,
				Label:    r.Label,
				Input:    input,
				Decisive: r.ID == d.RuleID,
			})
		}
	}

	if rs.IsShellTool(req.ToolName) {
		if command, ok := req.Command(); ok {
			add(model.SevBlocking, command)
			add(model.SevSensitive, command)
		}
	}
	if rs.IsWriteTool(req.ToolName) {
		if path, ok := req.FilePath(); ok {
			add(model.SevProtected, path)
			add(model.SevSystemDir, path)
		}
	}
	if rs.IsShellTool(req.ToolName) && req.SandboxDisabled() {
		exp.Matches = append(exp.Matches, Match{
			RuleID:   RuleSandbox,
			Severity: model.SevSandbox,
			Label:    "sandbox isolation disabled",
			Input:    model.ParamDisableSandbox + "=true",
			Decisive: d.RuleID == RuleSandbox,
		})
	}

	return exp
}
