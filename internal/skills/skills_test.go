package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFrontmatter(t *testing.T) {
	data := []byte("---\nname: testing\ndescription: |\n  TDD and\n  E2E strategy\n---\n# Testing\n")
	s, err := Parse(".claude/skills/testing-skill.md", data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "testing" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Description != "TDD and E2E strategy" {
		t.Errorf("description = %q", s.Description)
	}
}

func TestParseFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantName string
		wantDesc string
	}{
		{"no frontmatter", "intro\n## Git Workflow\nbody", "git-workflow", "Git Workflow"},
		{"partial frontmatter", "---\ndescription: branch rules\n---\n# Ignored", "git-workflow", "branch rules"},
		{"unterminated frontmatter", "---\nname: x\n# Heading", "git-workflow", "Heading"},
		{"empty", "", "git-workflow", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("git-workflow.md", []byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if s.Name != tt.wantName || s.Description != tt.wantDesc {
				t.Errorf("got %q/%q, want %q/%q", s.Name, s.Description, tt.wantName, tt.wantDesc)
			}
		})
	}
}

func TestParseInvalidFrontmatter(t *testing.T) {
	if _, err := Parse("bad.md", []byte("---\nname: [unclosed\n---\n")); err == nil {
		t.Error("expected error for invalid YAML frontmatter")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "zeta.md"), []byte("# Zeta skill"), 0644)
	os.WriteFile(filepath.Join(dir, "alpha.md"), []byte("---\nname: alpha\ndescription: first\n---\n"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)

	got, err := Discover(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(got))
	}
	if got[0].Name != "alpha" || got[1].Name != "zeta" {
		t.Errorf("expected sorted by name, got %s, %s", got[0].Name, got[1].Name)
	}
}

func TestDiscoverSkipsBadFrontmatter(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "good.md"), []byte("---\nname: good\n---\n"), 0644)
	os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\nname: [unclosed\n---\n"), 0644)

	var warn bytes.Buffer
	got, err := Discover(dir, &warn)
	if err != nil {
		t.Fatalf("a bad skill file must not fail discovery: %v", err)
	}
	if len(got) != 1 || got[0].Name != "good" {
		t.Errorf("expected only the good skill, got %+v", got)
	}
	if !strings.Contains(warn.String(), "bad.md") {
		t.Errorf("expected a warning naming bad.md, got %q", warn.String())
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	got, err := Discover(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no skills, got %v", got)
	}
}

func TestPrompt(t *testing.T) {
	out := Prompt([]Skill{{Name: "testing", Description: "test strategy", Path: "skills/testing.md"}}, "English")
	for _, want := range []string{
		"respond in English",
		"Step 1 - Evaluate",
		"- testing: test strategy (see skills/testing.md)",
		"Skill() tool",
		"Step 3 - Implement",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestPromptNoSkills(t *testing.T) {
	out := Prompt(nil, "")
	if !strings.Contains(out, "No skills configured") {
		t.Errorf("unexpected prompt: %s", out)
	}
	if strings.Contains(out, "Step 1") {
		t.Error("no evaluation steps without skills")
	}
}
