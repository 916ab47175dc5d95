package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiankov/hookwatch/internal/model"
)

// ParseError is returned when the hook payload cannot be turned into an
// ActionRequest. The hook fails closed on it.
type ParseError struct {
	Input []byte
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse hook input: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Meta carries the host fields that are not part of the ActionRequest but
// are useful in the audit trail.
type Meta struct {
	SessionID string
	Event     string
	WorkDir   string
}

// payload accepts the host's field names as well as the shorter aliases
// used by older hook scripts.
type payload struct {
	ToolName   json.RawMessage `json:"tool_name"`
	ToolNameCC json.RawMessage `json:"toolName"`
	Tool       json.RawMessage `json:"tool"`
	ToolInput  json.RawMessage `json:"tool_input"`
	Parameters json.RawMessage `json:"parameters"`
	SessionID  string          `json:"session_id"`
	Event      string          `json:"hook_event_name"`
	WorkDir    string          `json:"cwd"`
}

// ParseRequest decodes one hook payload.
//
// The payload must be a JSON object. The tool name is read from tool_name,
// toolName or tool (first present wins) and must be a string. Parameters are
// read from tool_input or parameters and must be an object when present.
// Missing fields are not errors: the classifier simply skips the branch.
func ParseRequest(data []byte) (model.ActionRequest, Meta, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.ActionRequest{}, Meta{}, &ParseError{Input: data, Err: errors.New("empty input")}
	}
	if trimmed[0] != '{' {
		return model.ActionRequest{}, Meta{}, &ParseError{Input: data, Err: errors.New("input is not a JSON object")}
	}

	var p payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return model.ActionRequest{}, Meta{}, &ParseError{Input: data, Err: err}
	}

	tool, err := firstString(p.ToolName, p.ToolNameCC, p.Tool)
	if err != nil {
		return model.ActionRequest{}, Meta{}, &ParseError{Input: data, Err: fmt.Errorf("tool name: %w", err)}
	}

	params, err := firstObject(p.ToolInput, p.Parameters)
	if err != nil {
		return model.ActionRequest{}, Meta{}, &ParseError{Input: data, Err: fmt.Errorf("parameters: %w", err)}
	}

	meta := Meta{SessionID: p.SessionID, Event: p.Event, WorkDir: p.WorkDir}
	return model.NewActionRequest(tool, params), meta, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func firstString(candidates ...json.RawMessage) (string, error) {
	for _, raw := range candidates {
		if !present(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("expected string, got %s", raw)
		}
		return s, nil
	}
	return "", nil
}

func firstObject(candidates ...json.RawMessage) (map[string]any, error) {
	for _, raw := range candidates {
		if !present(raw) {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("expected object: %w", err)
		}
		return m, nil
	}
	return map[string]any{}, nil
}
