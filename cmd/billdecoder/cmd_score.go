package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"billdecoder/internal/document"
	"billdecoder/internal/quality"
)

var scoreFlags struct {
	documentType string
	asJSON       bool
}

var scoreCmd = &cobra.Command{
	Use:   "score [file|-]",
	Short: "Score one answer read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreFlags.documentType, "document-type", string(document.TypeMedicalBill), "Document type the answer refers to")
	f.BoolVar(&scoreFlags.asJSON, "json", false, "Print JSON instead of tables")
}

type scoreOutput struct {
	DocumentType document.Type     `json:"document_type"`
	Metrics      quality.MetricSet `json:"metrics"`
	Scores       quality.Scores    `json:"scores"`
	IssuesFound  []string          `json:"issues_found"`
}

func runScore(cmd *cobra.Command, args []string) error {
	t, err := document.ParseType(scoreFlags.documentType)
	if err != nil {
		return fmt.Errorf("--document-type %q: %w", scoreFlags.documentType, err)
	}
	text, err := readAnswer(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	metrics, scores := quality.EvaluateInput(quality.EvaluationInput{ResponseText: text, DocumentType: t})
	res := scoreOutput{DocumentType: t, Metrics: metrics, Scores: scores, IssuesFound: quality.IssuesFound(text)}
	if res.IssuesFound == nil {
		res.IssuesFound = []string{}
	}

	out := cmd.OutOrStdout()
	if scoreFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	flags := metrics.Flags()
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	mt := table.NewWriter()
	mt.SetStyle(table.StyleLight)
	mt.AppendHeader(table.Row{"Metric", "Present"})
	for _, name := range names {
		mark := "no"
		if flags[name] {
			mark = "yes"
		}
		mt.AppendRow(table.Row{name, mark})
	}
	fmt.Fprintln(out, mt.Render())

	st := table.NewWriter()
	st.SetStyle(table.StyleLight)
	st.AppendHeader(table.Row{"Accuracy", "Clarity", "Confidence"})
	st.AppendRow(table.Row{scores.Accuracy, scores.Clarity, scores.Confidence})
	fmt.Fprintln(out, st.Render())

	if len(res.IssuesFound) > 0 {
		fmt.Fprintf(out, "Issues: %s\n", strings.Join(res.IssuesFound, ", "))
	}
	return nil
}

func readAnswer(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
