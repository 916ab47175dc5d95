package audit

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
)

func TestRecordFillsInvocationIDAndTimestamp(t *testing.T) {
	l, path := newTestLog(t)

	if err := l.Record(Entry{Tool: "Bash", Decision: "allow"}); err != nil {
		t.Fatal(err)
	}
	l.Close()

	entries, _, err := ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if _, err := uuid.Parse(entries[0].InvocationID); err != nil {
		t.Errorf("invocation id %q is not a uuid: %v", entries[0].InvocationID, err)
	}
	if entries[0].Timestamp == "" {
		t.Error("timestamp not filled")
	}
}

func TestRecordTruncatesDetails(t *testing.T) {
	l, path := newTestLog(t)

	e := testEntry("warn")
	e.Details = strings.Repeat("x", 500)
	if err := l.Record(e); err != nil {
		t.Fatal(err)
	}
	l.Close()

	entries, _, err := ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(entries[0].Details); got != 203 {
		t.Errorf("expected details truncated to 200+3 chars, got %d", got)
	}
	if !strings.HasSuffix(entries[0].Details, "...") {
		t.Error("truncated details should end with ...")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "héllo", 10, "héllo"},
		{"ascii", "abcdef", 3, "abc..."},
		{"cut inside two-byte rune", "aé", 2, "a..."},
		{"cut inside four-byte rune", "ab😀c", 4, "ab..."},
		{"on rune boundary", "é😀", 2, "é..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
		})
	}

	long := strings.Repeat("日本", 100)
	got := TruncateDetails(long)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") || len(got) > maxDetails+3 {
		t.Errorf("TruncateDetails produced %d bytes, valid=%v", len(got), utf8.ValidString(got))
	}
}

func TestRecordMasksSecrets(t *testing.T) {
	l, path := newTestLog(t)

	e := testEntry("warn")
	e.Details = `{"command":"mysql --password=hunter2 prod"}`
	e.Reason = "Command: mysql --password=hunter2 prod"
	if err := l.Record(e); err != nil {
		t.Fatal(err)
	}
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("secret written to audit log: %s", data)
	}
	if !strings.Contains(string(data), "--password=***") {
		t.Errorf("expected masked value in log: %s", data)
	}
}

func TestTail(t *testing.T) {
	l, path := newTestLog(t)
	for _, d := range []string{"allow", "warn", "block", "allow"} {
		l.Record(testEntry(d))
	}
	l.Close()

	last, err := Tail(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Decision != "block" || last[1].Decision != "allow" {
		t.Errorf("unexpected tail: %+v", last)
	}

	all, err := Tail(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 entries, got %d", len(all))
	}
}

func TestTailMissingFile(t *testing.T) {
	if _, err := Tail("/nonexistent/audit.jsonl", 5); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestComputeStats(t *testing.T) {
	l, path := newTestLog(t)

	records := []Entry{
		{Tool: "Bash", Decision: "block", RuleID: "fs.rm-root-path"},
		{Tool: "Bash", Decision: "block", RuleID: "fs.rm-root-path"},
		{Tool: "Bash", Decision: "warn", RuleID: "git.force-push"},
		{Tool: "Write", Decision: "warn", RuleID: "file.env"},
		{Tool: "Write", Decision: "allow"},
	}
	for _, e := range records {
		if err := l.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()

	// A garbage line is skipped, not fatal.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()

	s, err := ComputeStats(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 5 {
		t.Errorf("total = %d, want 5", s.Total)
	}
	if s.Malformed != 1 {
		t.Errorf("malformed = %d, want 1", s.Malformed)
	}
	if s.ByDecision["block"] != 2 || s.ByDecision["warn"] != 2 || s.ByDecision["allow"] != 1 {
		t.Errorf("unexpected decision counts: %v", s.ByDecision)
	}
	if s.ByTool["Bash"] != 3 || s.ByTool["Write"] != 2 {
		t.Errorf("unexpected tool counts: %v", s.ByTool)
	}

	top := s.TopRules(1)
	if len(top) != 1 || top[0].RuleID != "fs.rm-root-path" || top[0].Count != 2 {
		t.Errorf("unexpected top rules: %+v", top)
	}

	out := FormatStats(s)
	for _, want := range []string{"Entries: 5", "block", "fs.rm-root-path", "Malformed lines skipped: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatLine(t *testing.T) {
	e := Entry{
		Timestamp: "2025-01-15T10:30:00.000Z",
		Tool:      "Bash",
		Details:   `{"command":"rm -rf /"}`,
		Decision:  "block",
	}
	want := `[2025-01-15T10:30:00.000Z] BLOCK - Bash - {"command":"rm -rf /"}`
	if got := FormatLine(e); got != want {
		t.Errorf("FormatLine = %q, want %q", got, want)
	}
}

func TestEntryFieldOrderIsStable(t *testing.T) {
	line, err := json.Marshal(Entry{Timestamp: "t", Decision: "allow"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(line), `{"ts":"t","invocation_id":""`) {
		t.Errorf("unexpected field order: %s", line)
	}
}
