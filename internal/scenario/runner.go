package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hookwatch/internal/classify"
	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

// Run evaluates all cases in a scenario against the given rule set.
// A nil rule set uses the built-in defaults.
func Run(s *Scenario, rs *rules.Compiled) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		req := model.NewActionRequest(c.Tool, c.Parameters)
		d := classify.Classify(req, rs)

		actual := string(d.Verdict)
		expected := strings.ToLower(strings.TrimSpace(c.Expect))

		cr := CaseResult{
			Index:        i + 1,
			Tool:         c.Tool,
			Input:        caseInput(req),
			Expected:     expected,
			Actual:       actual,
			ExpectedRule: c.Rule,
			ActualRule:   d.RuleID,
			Reason:       d.Reason,
		}

		if actual == expected && (c.Rule == "" || c.Rule == d.RuleID) {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}

		result.Cases = append(result.Cases, cr)
	}

	return result
}

func caseInput(req model.ActionRequest) string {
	if cmd, ok := req.Command(); ok {
		return cmd
	}
	if path, ok := req.FilePath(); ok {
		return path
	}
	return ""
}

// Load parses one scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, c := range s.Cases {
		switch model.Verdict(strings.ToLower(strings.TrimSpace(c.Expect))) {
		case model.Allow, model.Warn, model.Block:
		default:
			return nil, fmt.Errorf("scenario %s: case %d: expect must be allow, warn or block, got %q", path, i+1, c.Expect)
		}
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and the rule set, and runs.
// A rules path set in the scenario file (relative to the scenario) takes
// precedence over rulesPath.
func LoadAndRun(path, rulesPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	if s.Rules != "" {
		rulesPath = s.Rules
		if !filepath.IsAbs(rulesPath) {
			rulesPath = filepath.Join(filepath.Dir(path), rulesPath)
		}
	}

	rs, err := rules.Load(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	result := Run(s, rs)
	result.File = path

	return result, nil
}
