package model

// Verdict is the classifier outcome for one request.
type Verdict string

const (
	Allow Verdict = "allow"
	Warn  Verdict = "warn"
	Block Verdict = "block"
)

// ExitCode maps a verdict to the hook process exit status.
// Only block signals failure; warn is left to the host to confirm.
func (v Verdict) ExitCode() int {
	if v == Block {
		return 1
	}
	return 0
}

// Severity classifies which rule table produced a match.
type Severity string

const (
	SevBlocking  Severity = "blocking"
	SevSensitive Severity = "sensitive"
	SevProtected Severity = "protected"
	SevSystemDir Severity = "system_dir"
	SevSandbox   Severity = "sandbox"
	SevInput     Severity = "input"
)

// Parameter keys read from the tool input.
const (
	ParamCommand        = "command"
	ParamFilePath       = "file_path"
	ParamFilePathAlt    = "filePath"
	ParamDisableSandbox = "dangerouslyDisableSandbox"
)

// ActionRequest is one proposed tool invocation awaiting a decision.
// Built once per hook invocation and treated as immutable afterwards.
type ActionRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// NewActionRequest copies params so later mutation by the caller cannot
// change what the classifier sees.
func NewActionRequest(tool string, params map[string]any) ActionRequest {
	cp := make(map[string]any, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return ActionRequest{ToolName: tool, Parameters: cp}
}

// Command returns the shell command, if present as a non-empty string.
func (r ActionRequest) Command() (string, bool) {
	return r.stringParam(ParamCommand)
}

// FilePath returns the write target. file_path wins over filePath.
func (r ActionRequest) FilePath() (string, bool) {
	if p, ok := r.stringParam(ParamFilePath); ok {
		return p, true
	}
	return r.stringParam(ParamFilePathAlt)
}

// SandboxDisabled reports an explicit boolean true for the sandbox-disable flag.
func (r ActionRequest) SandboxDisabled() bool {
	b, ok := r.Parameters[ParamDisableSandbox].(bool)
	return ok && b
}

func (r ActionRequest) stringParam(key string) (string, bool) {
	s, ok := r.Parameters[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Decision is the output of classification. Reason is always populated.
type Decision struct {
	Verdict  Verdict  `json:"decision"`
	Reason   string   `json:"reason"`
	RuleID   string   `json:"rule_id,omitempty"`
	Severity Severity `json:"-"`
}
