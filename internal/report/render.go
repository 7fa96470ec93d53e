package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"billdecoder/internal/document"
	"billdecoder/internal/runner"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a terminal summary with box-drawn tables.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintln(&b, "BILLDECODER EVALUATION REPORT")
	fmt.Fprintf(&b, "Session:  %s\n", r.SessionID)
	fmt.Fprintf(&b, "Provider: %s (%s)\n", r.Provider, r.Model)
	fmt.Fprintf(&b, "Date:     %s\n\n", r.Summary.TestDate.Format(timeLayout))

	for _, s := range sections(r, Text) {
		fmt.Fprintln(&b, strings.ToUpper(s.title))
		fmt.Fprintln(&b, s.body)
		fmt.Fprintln(&b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdown writes the summary sections followed by the detailed results
// grouped by document type.
func WriteMarkdown(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# BillDecoder Evaluation Report\n\n")
	fmt.Fprintf(&b, "- **Session:** `%s`\n", r.SessionID)
	fmt.Fprintf(&b, "- **Provider:** %s (%s)\n", r.Provider, r.Model)
	fmt.Fprintf(&b, "- **Date:** %s\n\n", r.Summary.TestDate.Format(timeLayout))

	for _, s := range sections(r, Markdown) {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.title, s.body)
	}

	fmt.Fprintf(&b, "## Detailed Results\n\n")
	for _, g := range groupByType(r.Results) {
		fmt.Fprintf(&b, "### %s\n\n", g.docType.Label())
		t := newTable(Markdown, "Test", "Prompt", "File", "Status", "Accuracy", "Clarity", "Confidence", "Time (s)", "Issues")
		for _, res := range g.results {
			status, acc, cl, conf := "❌ failed", "-", "-", "-"
			if res.Success {
				status = "✅ ok"
				acc, cl, conf = score(res.Scores.Accuracy), score(res.Scores.Clarity), score(res.Scores.Confidence)
			}
			t.row(res.TestID, res.PromptType, filepath.Base(res.DocumentFile), status, acc, cl, conf,
				seconds(res.ResponseTime), strings.Join(res.IssuesFound, ", "))
		}
		fmt.Fprintf(&b, "%s\n\n", t)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type section struct {
	title string
	body  string
}

func sections(r Report, m Mode) []section {
	summary := newTable(m, "Total", "Successful", "Failed", "Success rate")
	summary.row(r.Summary.TotalTests, r.Summary.SuccessfulTests, r.Summary.FailedTests, percent(r.Summary.SuccessRate))
	summary.alignRight(1, 2, 3, 4)

	out := []section{{"Summary", summary.String()}}

	if r.Performance.ResponseTime == nil {
		out = append(out, section{"Performance and Quality", r.Performance.Error})
	} else {
		metrics := newTable(m, "Metric", "Average", "Median", "Min", "Max")
		statsRow(metrics, "Response time (s)", r.Performance.ResponseTime, seconds)
		statsRow(metrics, "Accuracy", r.Quality.Accuracy, score)
		statsRow(metrics, "Clarity", r.Quality.Clarity, score)
		statsRow(metrics, "Confidence", r.Quality.Confidence, score)
		metrics.alignRight(2, 3, 4, 5)
		out = append(out, section{"Performance and Quality", metrics.String()})
	}

	out = append(out,
		section{"By Document Type", breakdownTable(m, "Document type", r.ByDocumentType, documentLabel)},
		section{"By Prompt", breakdownTable(m, "Prompt", r.ByPrompt, func(k string) string { return k })},
	)

	tokens := newTable(m, "Input", "Output", "Total")
	tokens.row(r.Tokens.InputTokens, r.Tokens.OutputTokens, r.Tokens.TotalTokens)
	tokens.alignRight(1, 2, 3)
	return append(out, section{"Token Usage", tokens.String()})
}

func statsRow(t *tableWriter, label string, s *Stats, format func(float64) string) {
	if s == nil {
		t.row(label, "-", "-", "-", "-")
		return
	}
	t.row(label, format(s.Average), format(s.Median), format(s.Min), format(s.Max))
}

func breakdownTable(m Mode, keyHeader string, rows []Breakdown, label func(string) string) string {
	t := newTable(m, keyHeader, "Tests", "Success", "Avg time (s)", "Accuracy", "Clarity", "Confidence")
	for _, b := range rows {
		t.row(label(b.Key), b.Total, percent(b.SuccessRate), seconds(b.AvgResponseTime),
			score(b.AvgAccuracy), score(b.AvgClarity), score(b.AvgConfidence))
	}
	t.alignRight(2, 3, 4, 5, 6, 7)
	return t.String()
}

type typeGroup struct {
	docType document.Type
	results []runner.Result
}

func groupByType(results []runner.Result) []typeGroup {
	var groups []typeGroup
	index := make(map[document.Type]int)
	for _, res := range results {
		i, ok := index[res.DocumentType]
		if !ok {
			i = len(groups)
			index[res.DocumentType] = i
			groups = append(groups, typeGroup{docType: res.DocumentType})
		}
		groups[i].results = append(groups[i].results, res)
	}
	return groups
}

func documentLabel(key string) string { return document.Type(key).Label() }

func percent(v float64) string { return fmt.Sprintf("%.1f%%", v) }
func seconds(v float64) string { return fmt.Sprintf("%.2f", v) }
func score(v float64) string   { return fmt.Sprintf("%.1f/10", v) }
