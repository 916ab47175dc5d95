package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// maxLineSize caps a single audit line when scanning.
const maxLineSize = 1024 * 1024

// Stats summarizes decisions recorded in an audit log.
type Stats struct {
	Total      int            `json:"total"`
	ByDecision map[string]int `json:"by_decision"`
	ByTool     map[string]int `json:"by_tool"`
	ByRule     map[string]int `json:"by_rule"`
	Malformed  int            `json:"malformed_lines"`
	First      string         `json:"first_timestamp,omitempty"`
	Last       string         `json:"last_timestamp,omitempty"`
}

// RuleCount is one row of Stats.TopRules.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// ReadEntries returns every parseable entry in the log, in order.
// Malformed lines are skipped and counted.
func ReadEntries(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	malformed := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			malformed++
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read audit log: %w", err)
	}
	return entries, malformed, nil
}

// Tail returns the last n entries of the log.
func Tail(path string, n int) ([]Entry, error) {
	entries, _, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}
	start := len(entries) - n
	if start < 0 {
		start = 0
	}
	return entries[start:], nil
}

// ComputeStats reads the log and counts decisions per verdict, tool and rule.
func ComputeStats(path string) (*Stats, error) {
	entries, malformed, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		ByDecision: make(map[string]int),
		ByTool:     make(map[string]int),
		ByRule:     make(map[string]int),
		Malformed:  malformed,
	}
	for _, e := range entries {
		s.Total++
		s.ByDecision[e.Decision]++
		s.ByTool[e.Tool]++
		if e.RuleID != "" {
			s.ByRule[e.RuleID]++
		}
		if s.First == "" {
			s.First = e.Timestamp
		}
		s.Last = e.Timestamp
	}
	return s, nil
}

// TopRules returns the n most frequently matched rules, highest first.
// Ties are broken by rule ID.
func (s *Stats) TopRules(n int) []RuleCount {
	out := make([]RuleCount, 0, len(s.ByRule))
	for id, c := range s.ByRule {
		out = append(out, RuleCount{RuleID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RuleID < out[j].RuleID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
