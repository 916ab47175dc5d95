package rules

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hookwatch/internal/model"
)

// ErrNoSuchRule is returned by Lookup for an unknown rule ID.
var ErrNoSuchRule = errors.New("no such rule")

// Rule is one pattern entry as written in the rules file.
type Rule struct {
	ID            string `yaml:"id" json:"id"`
	Pattern       string `yaml:"pattern" json:"pattern"`
	Label         string `yaml:"label" json:"label"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
}

// RuleSet holds the raw rule tables organized by severity.
type RuleSet struct {
	ShellTools []string `yaml:"shell_tools"`
	WriteTools []string `yaml:"write_tools"`
	Blocking   []Rule   `yaml:"blocking"`
	Sensitive  []Rule   `yaml:"sensitive"`
	Protected  []Rule   `yaml:"protected"`
	SystemDirs []Rule   `yaml:"system_dirs"`
}

// CompiledRule is a Rule with its regex compiled and severity attached.
type CompiledRule struct {
	Rule
	Severity model.Severity `json:"severity"`
	re       *regexp.Regexp
}

// Match reports whether text matches the rule pattern.
func (r CompiledRule) Match(text string) bool {
	return r.re.MatchString(text)
}

// Compiled is an immutable, compiled rule set. Safe for concurrent use.
type Compiled struct {
	raw        RuleSet
	hash       string
	shellTools map[string]bool
	writeTools map[string]bool
	tables     map[model.Severity][]CompiledRule
}

// Default returns the built-in rule set.
func Default() RuleSet {
	var rs RuleSet
	if err := yaml.Unmarshal(defaultYAML, &rs); err != nil {
		panic(fmt.Sprintf("rules: built-in rule set is invalid: %v", err))
	}
	return rs
}

// MustDefault compiles the built-in rule set.
func MustDefault() *Compiled {
	c, err := Compile(Default())
	if err != nil {
		panic(fmt.Sprintf("rules: built-in rule set does not compile: %v", err))
	}
	c.hash = emptyHash()
	return c
}

// Compile validates rs and compiles every pattern. Any bad pattern or
// duplicate ID is an error; a partially compiled set is never returned.
func Compile(rs RuleSet) (*Compiled, error) {
	c := &Compiled{
		raw:        rs,
		shellTools: toSet(rs.ShellTools),
		writeTools: toSet(rs.WriteTools),
		tables:     make(map[model.Severity][]CompiledRule, 4),
	}

	seen := make(map[string]model.Severity)
	sections := []struct {
		sev   model.Severity
		rules []Rule
	}{
		{model.SevBlocking, rs.Blocking},
		{model.SevSensitive, rs.Sensitive},
		{model.SevProtected, rs.Protected},
		{model.SevSystemDir, rs.SystemDirs},
	}

	for _, sec := range sections {
		compiled := make([]CompiledRule, 0, len(sec.rules))
		for i, r := range sec.rules {
			if r.Pattern == "" {
				return nil, fmt.Errorf("%s rule %d: empty pattern", sec.sev, i+1)
			}
			if r.ID == "" {
				r.ID = fmt.Sprintf("%s.%d", sec.sev, i+1)
			}
			if prev, dup := seen[r.ID]; dup {
				return nil, fmt.Errorf("%s rule %q: duplicate id (already used in %s)", sec.sev, r.ID, prev)
			}
			seen[r.ID] = sec.sev
			if r.Label == "" {
				r.Label = defaultLabel(sec.sev)
			}

			expr := r.Pattern
			if !r.CaseSensitive {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("%s rule %q: %w", sec.sev, r.ID, err)
			}
			compiled = append(compiled, CompiledRule{Rule: r, Severity: sec.sev, re: re})
		}
		c.tables[sec.sev] = compiled
	}

	return c, nil
}

// Load reads a rule set from a YAML file and compiles it.
// Empty path falls back to ~/.hookwatch/rules.yaml.
// Missing file returns defaults. Invalid YAML or patterns return an error.
func Load(path string) (*Compiled, error) {
	c, _, err := LoadWithHash(path)
	return c, err
}

// LoadWithHash loads and compiles a rule set and returns its SHA-256 hash.
// The hash covers the raw YAML bytes on disk; defaults hash as empty input.
func LoadWithHash(path string) (*Compiled, string, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			c := MustDefault()
			return c, c.hash, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := MustDefault()
			return c, c.hash, nil
		}
		return nil, "", fmt.Errorf("failed to read rules: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return c, c.hash, nil
}

// Parse compiles a rule set from YAML bytes layered over the defaults.
// Sections present in data replace the built-in section of the same name.
// Unknown keys are an error so a misspelled section cannot silently keep
// the defaults.
func Parse(data []byte) (*Compiled, error) {
	rs := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	c, err := Compile(rs)
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	h := sha256.Sum256(data)
	c.hash = "sha256:" + hex.EncodeToString(h[:])
	return c, nil
}

// DefaultPath returns ~/.hookwatch/rules.yaml, or "" if home is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hookwatch", "rules.yaml")
}

// IsShellTool reports whether tool is a shell-execution tool.
func (c *Compiled) IsShellTool(tool string) bool {
	return c.shellTools[tool]
}

// IsWriteTool reports whether tool is a file-write or file-edit tool.
func (c *Compiled) IsWriteTool(tool string) bool {
	return c.writeTools[tool]
}

// FirstMatch returns the first rule of the given severity matching text.
func (c *Compiled) FirstMatch(sev model.Severity, text string) (CompiledRule, bool) {
	for _, r := range c.tables[sev] {
		if r.Match(text) {
			return r, true
		}
	}
	return CompiledRule{}, false
}

// Matches returns every rule of the given severity matching text, in order.
func (c *Compiled) Matches(sev model.Severity, text string) []CompiledRule {
	var out []CompiledRule
	for _, r := range c.tables[sev] {
		if r.Match(text) {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns a copy of the compiled rules of one severity, in order.
func (c *Compiled) Rules(sev model.Severity) []CompiledRule {
	return slices.Clone(c.tables[sev])
}

// All returns every compiled rule in evaluation order.
func (c *Compiled) All() []CompiledRule {
	var out []CompiledRule
	for _, sev := range Severities() {
		out = append(out, c.tables[sev]...)
	}
	return out
}

// Lookup finds a rule by ID.
func (c *Compiled) Lookup(id string) (CompiledRule, error) {
	for _, r := range c.All() {
		if r.ID == id {
			return r, nil
		}
	}
	return CompiledRule{}, fmt.Errorf("%w: %s", ErrNoSuchRule, id)
}

// Hash returns the source hash recorded when the set was loaded.
func (c *Compiled) Hash() string {
	return c.hash
}

// Raw returns a copy of the uncompiled rule set.
func (c *Compiled) Raw() RuleSet {
	rs := c.raw
	rs.ShellTools = slices.Clone(rs.ShellTools)
	rs.WriteTools = slices.Clone(rs.WriteTools)
	rs.Blocking = slices.Clone(rs.Blocking)
	rs.Sensitive = slices.Clone(rs.Sensitive)
	rs.Protected = slices.Clone(rs.Protected)
	rs.SystemDirs = slices.Clone(rs.SystemDirs)
	return rs
}

// Severities lists rule table severities in evaluation order.
func Severities() []model.Severity {
	return []model.Severity{model.SevBlocking, model.SevSensitive, model.SevProtected, model.SevSystemDir}
}

// ParseSeverity resolves a rule table name such as "blocking".
func ParseSeverity(s string) (model.Severity, error) {
	for _, sev := range Severities() {
		if string(sev) == s {
			return sev, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

func defaultLabel(sev model.Severity) string {
	switch sev {
	case model.SevBlocking:
		return "destructive operation"
	case model.SevSensitive:
		return "sensitive operation"
	case model.SevProtected:
		return "critical file"
	default:
		return "system directory"
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}
