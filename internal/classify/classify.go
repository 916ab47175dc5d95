package classify

import (
	"fmt"

	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

const (
	RuleSandbox = "sandbox.disabled"
	RuleInput   = "input.malformed"
	RuleLoad    = "rules.unavailable"
)

// Classify evaluates a single tool invocation against the rule set.
//
// Evaluation order (must not be changed):
//  1. Shell tools with a command: blocking rules → block, then sensitive rules → warn
//  2. Write tools with a file path: protected files → warn, then system directories → block
//  3. Shell tools with dangerouslyDisableSandbox=true → warn
//  4. Otherwise → allow
//
// Within each table the first matching rule wins.
func Classify(req model.ActionRequest, rs *rules.Compiled) model.Decision {
	if rs == nil {
		rs = defaultRules
	}

	if rs.IsShellTool(req.ToolName) {
		if command, ok := req.Command(); ok {
			if r, hit := rs.FirstMatch(model.SevBlocking, command); hit {
				return model.Decision{
					Verdict:  model.Block,
					Reason:   blockCommandReason(command, r),
					RuleID:   r.ID,
					Severity: model.SevBlocking,
				}
			}
			if r, hit := rs.FirstMatch(model.SevSensitive, command); hit {
				return model.Decision{
					Verdict:  model.Warn,
					Reason:   warnCommandReason(command, r),
					RuleID:   r.ID,
					Severity: model.SevSensitive,
				}
			}
		}
	}

	if rs.IsWriteTool(req.ToolName) {
		if path, ok := req.FilePath(); ok {
			// Protected files are checked first, so a protected name inside a
			// system directory reports as protected.
			if r, hit := rs.FirstMatch(model.SevProtected, path); hit {
				return model.Decision{
					Verdict:  model.Warn,
					Reason:   protectedFileReason(req.ToolName, path, r),
					RuleID:   r.ID,
					Severity: model.SevProtected,
				}
			}
			if r, hit := rs.FirstMatch(model.SevSystemDir, path); hit {
				return model.Decision{
					Verdict:  model.Block,
					Reason:   systemDirReason(path, r),
					RuleID:   r.ID,
					Severity: model.SevSystemDir,
				}
			}
		}
	}

	if rs.IsShellTool(req.ToolName) && req.SandboxDisabled() {
		return model.Decision{
			Verdict:  model.Warn,
			Reason:   sandboxReason(),
			RuleID:   RuleSandbox,
			Severity: model.SevSandbox,
		}
	}

	return model.Decision{
		Verdict: model.Allow,
		Reason:  "passed safety checks",
	}
}

// Malformed returns the fail-closed decision for a request that could not be parsed.
func Malformed(err error) model.Decision {
	return model.Decision{
		Verdict:  model.Block,
		Reason:   fmt.Sprintf("hook input rejected: %v", err),
		RuleID:   RuleInput,
		Severity: model.SevInput,
	}
}

// Unavailable returns the fail-closed decision used when no rule set could be loaded.
func Unavailable(err error) model.Decision {
	return model.Decision{
		Verdict:  model.Block,
		Reason:   fmt.Sprintf("rule set unavailable: %v", err),
		RuleID:   RuleLoad,
		Severity: model.SevInput,
	}
}

var defaultRules = rules.MustDefault()
