// Package rulediff compares two compiled rule sets.
package rulediff

import (
	"fmt"

	"github.com/ppiankov/hookwatch/internal/model"
	"github.com/ppiankov/hookwatch/internal/rules"
)

// Change represents a tool-list change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// RuleChange represents a rule addition, removal, or modification.
type RuleChange struct {
	Type    string   `json:"type"` // "added", "removed", "changed"
	ID      string   `json:"id"`
	Rule    string   `json:"rule"`
	Fields  []string `json:"fields,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

// DiffResult holds the comparison of two rule sets.
type DiffResult struct {
	OldPath     string       `json:"old_path"`
	NewPath     string       `json:"new_path"`
	OldHash     string       `json:"old_hash"`
	NewHash     string       `json:"new_hash"`
	Changes     []Change     `json:"changes"`
	RuleChanges []RuleChange `json:"rule_changes"`
	HasChanges  bool         `json:"has_changes"`
}

// Diff compares two rule sets. Rules are matched by ID.
func Diff(old, new *rules.Compiled) *DiffResult {
	r := &DiffResult{OldHash: old.Hash(), NewHash: new.Hash()}

	oldRaw, newRaw := old.Raw(), new.Raw()
	diffList(r, "shell_tools", oldRaw.ShellTools, newRaw.ShellTools)
	diffList(r, "write_tools", oldRaw.WriteTools, newRaw.WriteTools)
	diffRules(r, old.All(), new.All())

	r.HasChanges = len(r.Changes) > 0 || len(r.RuleChanges) > 0
	return r
}

// strength orders severities by the verdict they produce.
func strength(sev model.Severity) int {
	switch sev {
	case model.SevBlocking, model.SevSystemDir:
		return 2
	case model.SevSensitive, model.SevProtected:
		return 1
	default:
		return 0
	}
}

func severityComment(old, new model.Severity) string {
	switch {
	case strength(new) > strength(old):
		return "stricter"
	case strength(new) < strength(old):
		return "looser"
	default:
		return ""
	}
}

func ruleLabel(r rules.CompiledRule) string {
	return fmt.Sprintf("%s [%s] %s", r.ID, r.Severity, r.Pattern)
}

func diffRules(r *DiffResult, oldRules, newRules []rules.CompiledRule) {
	oldMap := make(map[string]rules.CompiledRule)
	for _, rule := range oldRules {
		oldMap[rule.ID] = rule
	}

	newMap := make(map[string]rules.CompiledRule)
	for _, rule := range newRules {
		newMap[rule.ID] = rule
	}

	for _, rule := range newRules {
		oldRule, exists := oldMap[rule.ID]
		if !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{
				Type:    "added",
				ID:      rule.ID,
				Rule:    ruleLabel(rule),
				Comment: "stricter",
			})
			continue
		}

		var fields []string
		if oldRule.Severity != rule.Severity {
			fields = append(fields, "severity")
		}
		if oldRule.Pattern != rule.Pattern {
			fields = append(fields, "pattern")
		}
		if oldRule.Label != rule.Label {
			fields = append(fields, "label")
		}
		if oldRule.CaseSensitive != rule.CaseSensitive {
			fields = append(fields, "case_sensitive")
		}
		if len(fields) == 0 {
			continue
		}
		r.RuleChanges = append(r.RuleChanges, RuleChange{
			Type:    "changed",
			ID:      rule.ID,
			Rule:    fmt.Sprintf("%s (was: [%s] %s)", ruleLabel(rule), oldRule.Severity, oldRule.Pattern),
			Fields:  fields,
			Comment: severityComment(oldRule.Severity, rule.Severity),
		})
	}

	for _, rule := range oldRules {
		if _, exists := newMap[rule.ID]; !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{
				Type:    "removed",
				ID:      rule.ID,
				Rule:    ruleLabel(rule),
				Comment: "looser",
			})
		}
	}
}

func diffList(r *DiffResult, section string, oldKeys, newKeys []string) {
	oldSet := make(map[string]bool)
	for _, k := range oldKeys {
		oldSet[k] = true
	}
	newSet := make(map[string]bool)
	for _, k := range newKeys {
		newSet[k] = true
	}

	for _, k := range newKeys {
		if !oldSet[k] {
			r.Changes = append(r.Changes, Change{
				Field:   section,
				New:     k,
				Comment: "added",
			})
		}
	}
	for _, k := range oldKeys {
		if !newSet[k] {
			r.Changes = append(r.Changes, Change{
				Field:   section,
				Old:     k,
				Comment: "removed",
			})
		}
	}
}
