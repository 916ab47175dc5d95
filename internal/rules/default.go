package rules

import _ "embed"

// defaultYAML is the built-in rule set. It doubles as the commented
// template written by `hookwatch init`, so the two cannot drift.
//
//go:embed default.yaml
var defaultYAML []byte

// DefaultRulesYAML returns the commented built-in rule file.
func DefaultRulesYAML() string {
	return string(defaultYAML)
}
