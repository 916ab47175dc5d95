package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/hookwatch/internal/audit"
	"github.com/ppiankov/hookwatch/internal/classify"
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

// EventPreToolUse is the host event name recorded for safety decisions.
const EventPreToolUse = "PreToolUse"

// Output is the structured payload written to stdout.
type Output struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Runner wires the rule set, classifier and optional audit sink for one
// hook invocation.
type Runner struct {
	// Rules is the compiled rule set. Nil uses the built-in defaults.
	Rules *rules.Compiled

	// RulesErr, when set, means the configured rule set failed to load.
	// The runner then blocks every request.
	RulesErr error

	// Recorder receives one entry per decision. Optional.
	Recorder audit.Recorder

	// Diag receives best-effort diagnostics such as audit failures. Optional.
	Diag io.Writer
}

// PreToolUse reads one payload from in, classifies it, writes the decision
// to out, and returns the process exit code (1 for block, 0 otherwise).
// Every failure path produces a block decision.
func (r *Runner) PreToolUse(ctx context.Context, in io.Reader, out io.Writer) int {
	data, err := io.ReadAll(in)
	if err != nil {
		return r.finish(out, classify.Malformed(fmt.Errorf("read stdin: %w", err)), model.ActionRequest{}, Meta{}, data)
	}
	if err := ctx.Err(); err != nil {
		return r.finish(out, classify.Malformed(err), model.ActionRequest{}, Meta{}, data)
	}

	req, meta, err := ParseRequest(data)
	if err != nil {
		return r.finish(out, classify.Malformed(err), req, meta, data)
	}

	if r.RulesErr != nil {
		return r.finish(out, classify.Unavailable(r.RulesErr), req, meta, data)
	}

	return r.finish(out, classify.Classify(req, r.Rules), req, meta, data)
}

func (r *Runner) finish(out io.Writer, d model.Decision, req model.ActionRequest, meta Meta, raw []byte) int {
	if err := json.NewEncoder(out).Encode(Output{Decision: string(d.Verdict), Reason: d.Reason}); err != nil {
		r.diag("write decision: %v", err)
	}
	r.record(d, req, meta, raw)
	return d.Verdict.ExitCode()
}

// record is best-effort: a failing sink never changes the decision already written.
func (r *Runner) record(d model.Decision, req model.ActionRequest, meta Meta, raw []byte) {
	if r.Recorder == nil {
		return
	}

	details := string(raw)
	if req.ToolName != "" || len(req.Parameters) > 0 {
		if b, err := json.Marshal(req.Parameters); err == nil {
			details = string(b)
		}
	}

	entry := audit.Entry{
		SessionID: meta.SessionID,
		Event:     EventPreToolUse,
		Tool:      req.ToolName,
		Details:   details,
		Decision:  string(d.Verdict),
		Reason:    d.Reason,
		RuleID:    d.RuleID,
	}
	if r.Rules != nil {
		entry.RulesHash = r.Rules.Hash()
	}

	defer func() {
		if p := recover(); p != nil {
			r.diag("audit: recorder panicked: %v", p)
		}
	}()
	if err := r.Recorder.Record(entry); err != nil {
		r.diag("audit: %v", err)
	}
}

func (r *Runner) diag(format string, args ...any) {
	if r.Diag == nil {
		return
	}
	fmt.Fprintf(r.Diag, format+"\n", args...)
}
