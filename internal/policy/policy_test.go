package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForbiddenPhraseBlocks(t *testing.T) {
	_, res := Evaluate("Based on this panel, you have cancer.", Default())
	if res.Allowed {
		t.Fatalf("expected forbidden phrase to block")
	}
	if res.ViolationLevel != LevelCritical {
		t.Fatalf("expected critical violation, got %q", res.ViolationLevel)
	}
}

func TestRedactsIdentifiers(t *testing.T) {
	text, res := Evaluate("Patient SSN 123-45-6789 was billed twice.", Default())
	if text != "Patient SSN [REDACTED] was billed twice." {
		t.Fatalf("unexpected redaction %q", text)
	}
	if !res.Allowed || res.ViolationLevel != LevelWarning {
		t.Fatalf("expected allowed warning, got %+v", res)
	}
	if diff := cmp.Diff([]string{FlagSensitiveData}, res.RiskFlags); diff != "" {
		t.Fatalf("flags mismatch:\n%s", diff)
	}
}

func TestCleanAnswer(t *testing.T) {
	text, res := Evaluate("In plain English: you owe $120.", Default())
	if text != "In plain English: you owe $120." || !res.Allowed || res.ViolationLevel != "" || res.RiskFlags != nil {
		t.Fatalf("expected clean verdict, got %q %+v", text, res)
	}
}

func TestLengthAndDisclosures(t *testing.T) {
	p := Policy{MaxResponseLength: 5, RequiredDisclosures: []string{"Not medical advice"}}
	_, res := Evaluate("ééééééé", p)
	if res.Allowed || res.Reason != "answer exceeds max response length" {
		t.Fatalf("expected length violation, got %+v", res)
	}
	if diff := cmp.Diff([]string{FlagTooLong, FlagMissingDisclosure}, res.RiskFlags); diff != "" {
		t.Fatalf("flags mismatch:\n%s", diff)
	}

	p.MaxResponseLength = 0
	if _, res := Evaluate("This is NOT MEDICAL ADVICE.", p); res.RiskFlags != nil {
		t.Fatalf("expected disclosure match to ignore case, got %+v", res)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "name: strict\nforbidden_phrases: [\"diagnosis is\"]\nredactions:\n  patterns: ['MBR\\d+']\n  replacement: '***'\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	text, _ := Evaluate("Member MBR123456", p)
	if text != "Member ***" {
		t.Fatalf("unexpected redaction %q", text)
	}

	if err := os.WriteFile(path, []byte("redactions:\n  patterns: ['(']\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "redaction pattern") {
		t.Fatalf("expected bad pattern error, got %v", err)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "billdecoder-answers" {
		t.Fatalf("expected embedded policy, got %q", p.Name)
	}
}
