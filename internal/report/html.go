package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/presentation.html.tmpl
var templateFS embed.FS

var presentation = template.Must(template.ParseFS(templateFS, "templates/presentation.html.tmpl"))

type presentationView struct {
	Report         Report
	Date           string
	AvgTime        string
	Tokens         string
	Quality        []qualityRow
	ByDocumentType []labeledBreakdown
}

type qualityRow struct {
	Name    string
	Stats   Stats
	Percent float64
}

type labeledBreakdown struct {
	Breakdown
	Label string
}

// WriteHTML renders the self-contained presentation page. The full report is
// also embedded as a JavaScript object.
func WriteHTML(w io.Writer, r Report) error {
	view := presentationView{
		Report:  r,
		Date:    r.Summary.TestDate.Format(timeLayout),
		AvgTime: "-",
		Tokens:  compactCount(r.Tokens.TotalTokens),
	}
	if rt := r.Performance.ResponseTime; rt != nil {
		view.AvgTime = fmt.Sprintf("%.1fs", rt.Average)
	}
	for _, q := range []struct {
		name  string
		stats *Stats
	}{
		{"Accuracy", r.Quality.Accuracy},
		{"Clarity", r.Quality.Clarity},
		{"Confidence", r.Quality.Confidence},
	} {
		if q.stats != nil {
			view.Quality = append(view.Quality, qualityRow{Name: q.name, Stats: *q.stats, Percent: q.stats.Average * 10})
		}
	}
	for _, b := range r.ByDocumentType {
		view.ByDocumentType = append(view.ByDocumentType, labeledBreakdown{Breakdown: b, Label: documentLabel(b.Key)})
	}
	return presentation.Execute(w, view)
}

func compactCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dK", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
