// Package skills builds the skill-activation prompt injected on each user
// prompt. Skills are markdown files with optional YAML frontmatter.
package skills

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDir is the skills directory relative to the project root.
var DefaultDir = filepath.Join(".claude", "skills")

// Skill is one discovered skill file.
type Skill struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Path        string `yaml:"-" json:"path"`
}

// Discover reads every *.md file in dir. A missing directory yields no skills.
// Files that cannot be read or parsed are skipped and reported to warn,
// which may be nil.
func Discover(dir string, warn io.Writer) ([]Skill, error) {
	if warn == nil {
		warn = io.Discard
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("glob skills: %w", err)
	}

	var out []Skill
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(warn, "skills: skipping %s: %v\n", path, err)
			}
			continue
		}
		s, err := Parse(path, data)
		if err != nil {
			fmt.Fprintf(warn, "skills: skipping %v\n", err)
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Parse extracts a Skill from a markdown file. The name falls back to the
// file stem and the description to the first heading of the body.
func Parse(path string, data []byte) (Skill, error) {
	s := Skill{Path: path}

	front, body := splitFrontmatter(data)
	if front != nil {
		if err := yaml.Unmarshal(front, &s); err != nil {
			return Skill{}, fmt.Errorf("parse frontmatter %s: %w", path, err)
		}
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Description == "" {
		s.Description = firstHeading(body)
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.Join(strings.Fields(s.Description), " ")
	return s, nil
}

func splitFrontmatter(data []byte) ([]byte, []byte) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, []byte("---")) {
		return nil, data
	}
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) < 2 || strings.TrimSpace(string(lines[0])) != "---" {
		return nil, data
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(string(lines[i])) == "---" {
			return bytes.Join(lines[1:i], nil), bytes.Join(lines[i+1:], nil)
		}
	}
	return nil, data
}

func firstHeading(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// Prompt renders the forced evaluate/activate/implement instruction.
func Prompt(skills []Skill, language string) string {
	var b strings.Builder
	if language != "" {
		fmt.Fprintf(&b, "## Language: respond in %s\n\n", language)
	}

	if len(skills) == 0 {
		b.WriteString("No skills configured for this project; proceed with the request.\n")
		return b.String()
	}

	b.WriteString("## Instruction: mandatory skill activation\n\n")
	b.WriteString("### Step 1 - Evaluate\n\n")
	b.WriteString("For each skill below, state: [skill] - yes/no - [reason]\n\n")
	b.WriteString("Available skills:\n")
	for _, s := range skills {
		fmt.Fprintf(&b, "- %s", s.Name)
		if s.Description != "" {
			fmt.Fprintf(&b, ": %s", s.Description)
		}
		if s.Path != "" {
			fmt.Fprintf(&b, " (see %s)", filepath.ToSlash(s.Path))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n### Step 2 - Activate\n\n")
	b.WriteString("If any skill is \"yes\", activate it now with the Skill() tool.\n")
	b.WriteString("If every skill is \"no\", say \"no skills needed\" and continue.\n")
	b.WriteString("\n### Step 3 - Implement\n\n")
	b.WriteString("Start implementing only after step 2 is complete.\n")
	return b.String()
}
