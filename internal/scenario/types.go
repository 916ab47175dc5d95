package scenario

// Case is one test case within a scenario. Parameters are passed to the
// classifier exactly as a hook payload's tool_input would be.
type Case struct {
	Tool       string         `yaml:"tool"`
	Parameters map[string]any `yaml:"parameters"`
	Expect     string         `yaml:"expect"`
	Rule       string         `yaml:"rule,omitempty"`
	Note       string         `yaml:"note,omitempty"`
}

// Scenario is a named collection of classifier test cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Rules string `yaml:"rules,omitempty"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index        int    `json:"index"`
	Passed       bool   `json:"passed"`
	Tool         string `json:"tool"`
	Input        string `json:"input"`
	Expected     string `json:"expected"`
	Actual       string `json:"actual"`
	ExpectedRule string `json:"expected_rule,omitempty"`
	ActualRule   string `json:"actual_rule,omitempty"`
	Reason       string `json:"reason"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
