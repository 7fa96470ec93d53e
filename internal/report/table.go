package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects how tables render.
type Mode int

const (
	Text     Mode = iota // box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

type tableWriter struct {
	w    table.Writer
	mode Mode
}

func newTable(m Mode, header ...any) *tableWriter {
	w := table.NewWriter()
	if m == Text {
		w.SetStyle(table.StyleLight)
	}
	if len(header) > 0 {
		w.AppendHeader(table.Row(header))
	}
	return &tableWriter{w: w, mode: m}
}

func (t *tableWriter) row(vals ...any) {
	t.w.AppendRow(table.Row(vals))
}

// alignRight right-aligns the given 1-based columns.
func (t *tableWriter) alignRight(cols ...int) {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	t.w.SetColumnConfigs(cfgs)
}

func (t *tableWriter) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}
