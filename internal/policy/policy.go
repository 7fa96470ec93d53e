// Package policy checks model answers before they are written to result
// files: identifier redaction, forbidden phrases, length and required
// disclosures.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Violation levels.
const (
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Risk flags attached to results.
const (
	FlagForbiddenPhrase   = "forbidden_phrase"
	FlagSensitiveData     = "contains_sensitive_data"
	FlagTooLong           = "too_long"
	FlagMissingDisclosure = "missing_disclosure"
)

//go:embed default.yaml
var defaultPolicy []byte

type Policy struct {
	Name                string   `yaml:"name"`
	Version             int      `yaml:"version"`
	ForbiddenPhrases    []string `yaml:"forbidden_phrases"`
	RequiredDisclosures []string `yaml:"required_disclosures"`
	MaxResponseLength   int      `yaml:"max_response_length_chars"`
	Redactions          struct {
		Patterns    []string `yaml:"patterns"`
		Replacement string   `yaml:"replacement"`
	} `yaml:"redactions"`

	compiled []*regexp.Regexp
}

type Result struct {
	Allowed           bool     `json:"allowed"`
	ViolationLevel    string   `json:"violation_level,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	RiskFlags         []string `json:"risk_flags,omitempty"`
	RedactionsApplied []string `json:"redactions_applied,omitempty"`
}

// Default returns the embedded answer policy.
func Default() Policy {
	p, err := parse(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("embedded policy: %v", err))
	}
	return p
}

// Load reads a policy file. An empty path yields Default.
func Load(path string) (Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	p, err := parse(data)
	if err != nil {
		return Policy{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parse(data []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}
	for _, pattern := range p.Redactions.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return p, fmt.Errorf("redaction pattern %q: %w", pattern, err)
		}
		p.compiled = append(p.compiled, re)
	}
	return p, nil
}

// Evaluate returns the answer with redactions applied and the verdict.
// Redaction runs before the length check so it applies to stored text.
func Evaluate(answer string, p Policy) (string, Result) {
	res := Result{Allowed: true}
	text := answer
	lower := strings.ToLower(text)

	for _, phrase := range p.ForbiddenPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			res.Allowed = false
			res.ViolationLevel = LevelCritical
			res.Reason = "answer contains forbidden phrase: " + phrase
			res.RiskFlags = append(res.RiskFlags, FlagForbiddenPhrase)
			break
		}
	}

	replacement := p.Redactions.Replacement
	if replacement == "" {
		replacement = "[REDACTED]"
	}
	for _, re := range p.patterns() {
		if re.MatchString(text) {
			res.RedactionsApplied = append(res.RedactionsApplied, re.String())
			text = re.ReplaceAllString(text, replacement)
		}
	}
	if len(res.RedactionsApplied) > 0 {
		res.RiskFlags = append(res.RiskFlags, FlagSensitiveData)
	}

	if p.MaxResponseLength > 0 && utf8.RuneCountInString(text) > p.MaxResponseLength {
		res.RiskFlags = append(res.RiskFlags, FlagTooLong)
		if res.Allowed {
			res.Allowed = false
			res.ViolationLevel = LevelCritical
			res.Reason = "answer exceeds max response length"
		}
	}

	for _, disclosure := range p.RequiredDisclosures {
		if disclosure != "" && !strings.Contains(lower, strings.ToLower(disclosure)) {
			res.RiskFlags = append(res.RiskFlags, FlagMissingDisclosure)
			break
		}
	}

	if len(res.RiskFlags) > 0 && res.ViolationLevel == "" {
		res.ViolationLevel = LevelWarning
	}
	return text, res
}

// patterns returns the compiled redactions, compiling on demand for
// policies built in code. Invalid patterns are skipped.
func (p Policy) patterns() []*regexp.Regexp {
	if len(p.compiled) == len(p.Redactions.Patterns) {
		return p.compiled
	}
	out := make([]*regexp.Regexp, 0, len(p.Redactions.Patterns))
	for _, pattern := range p.Redactions.Patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			out = append(out, re)
		}
	}
	return out
}
