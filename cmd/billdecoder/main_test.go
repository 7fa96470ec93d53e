package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"billdecoder/internal/quality"
)

// execute runs the root command with args and resets command flags after.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		scoreFlags.asJSON = false
		scoreFlags.documentType = "medical_bill"
		globalFlags.configPath = ""
		globalFlags.logLevel = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreFromStdinJSON(t *testing.T) {
	out, err := execute(t, "In plain English: ❌ duplicate charge. Next step: call billing.", "score", "--json")
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	var got scoreOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !got.Metrics.HasPlainEnglish || !got.Metrics.HasErrorDetection {
		t.Fatalf("unexpected metrics %+v", got.Metrics)
	}
	want, _ := quality.Evaluate("In plain English: ❌ duplicate charge. Next step: call billing.", got.DocumentType)
	if got.Metrics != want {
		t.Fatalf("expected metrics to match the scorer")
	}
}

func TestScoreFileTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.txt")
	if err := os.WriteFile(path, []byte("Total charges: $100. Consult your doctor."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "", "score", path, "--document-type", "EOB")
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	for _, want := range []string{"has_financial_breakdown", "Accuracy", "Confidence"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestScoreRejectsUnknownDocumentType(t *testing.T) {
	if _, err := execute(t, "text", "score", "--document-type", "x-ray"); err == nil {
		t.Fatalf("expected an error for an unknown document type")
	}
}

func TestGenerateThenReport(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	results := filepath.Join(dir, "results")
	cfgPath := filepath.Join(dir, "billdecoder.yaml")
	cfg := "log:\n  level: error\nrun:\n  requests_per_second: 1000\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "", "--config", cfgPath, "generate", "--out", data, "--seed", "3", "--bills", "1", "--labs", "1", "--eobs", "1")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Wrote 12 files") {
		t.Fatalf("unexpected generate output %q", out)
	}

	out, err = execute(t, "", "--config", cfgPath, "run", "--data", data, "--results", results)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Presentation:") {
		t.Fatalf("unexpected run output %q", out)
	}

	out, err = execute(t, "", "--config", cfgPath, "report", "--results", results)
	if err != nil {
		t.Fatalf("report: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Re-rendered") {
		t.Fatalf("unexpected report output %q", out)
	}
}

func TestMCPStdio(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_prompts","arguments":{"document_type":"eob"}}}` + "\n"
	out, err := execute(t, in, "--log-level", "error", "mcp")
	if err != nil {
		t.Fatalf("mcp: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"eob_analysis"`) {
		t.Fatalf("expected eob prompts in %q", out)
	}
}

func TestRunDeadlineStillPrintsReports(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	results := filepath.Join(dir, "results")
	if out, err := execute(t, "", "--log-level", "error", "generate", "--out", data, "--seed", "4", "--bills", "1", "--labs", "1", "--eobs", "1"); err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	// Subcommands keep the context of an earlier Execute, so set it on run directly.
	runCmd.SetContext(ctx)
	t.Cleanup(func() { runCmd.SetContext(context.Background()) })

	out, err := execute(t, "", "--log-level", "error", "run", "--data", data, "--results", results)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "Reports:") || !strings.Contains(out, "Presentation:") {
		t.Fatalf("expected report paths after a deadline, got %q", out)
	}
}
