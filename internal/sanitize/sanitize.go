// Package sanitize strips filler lines from generated solutions.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoRules is returned when a rule file declares no rules.
var ErrNoRules = errors.New("rule file contains no rules")

// Rule drops any line whose trimmed text matches Pattern. Patterns are
// regular expressions and always match case-insensitively.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// DefaultRules is the built-in filler list.
var DefaultRules = []Rule{
	{Name: "reminder", Pattern: `remember to`},
	{Name: "advice", Pattern: `you should`},
	{Name: "compile-hint", Pattern: `compile`},
	{Name: "enrollment", Pattern: `enroll`},
	{Name: "self-praise", Pattern: `this comprehensive`},
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Sanitizer applies a fixed rule set. It is safe for concurrent use.
type Sanitizer struct {
	rules []compiledRule
}

// New compiles rules into a Sanitizer.
func New(rules []Rule) (*Sanitizer, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %q has an empty pattern", r.Name)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{Rule: r, re: re})
	}
	return &Sanitizer{rules: compiled}, nil
}

// Default returns a Sanitizer over DefaultRules.
func Default() *Sanitizer {
	s, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return s
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file of the form:
//
//	rules:
//	  - name: reminder
//	    pattern: remember to
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file %q: %w", path, err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rule file %q: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, ErrNoRules
	}
	return f.Rules, nil
}

// FromFile builds a Sanitizer from a rule file, or the defaults when path is empty.
func FromFile(path string) (*Sanitizer, error) {
	if path == "" {
		return Default(), nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return New(rules)
}

// Rules returns a copy of the active rules.
func (s *Sanitizer) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Rule
	}
	return out
}

// Match returns the first rule that line trips, if any.
func (s *Sanitizer) Match(line string) (Rule, bool) {
	trimmed := strings.TrimSpace(line)
	for _, r := range s.rules {
		if r.re.MatchString(trimmed) {
			return r.Rule, true
		}
	}
	return Rule{}, false
}

// Sanitize drops matching lines, keeps the rest in order and trims the
// result. Rules see each line trimmed, so Sanitize(Sanitize(t)) == Sanitize(t).
func (s *Sanitizer) Sanitize(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, drop := s.Match(line); drop {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
