package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"billdecoder/internal/document"
)

// Suite directory names. The runner classifies documents by these.
const (
	DirBills     = "bills"
	DirLabs      = "lab-results"
	DirEOB       = "eob"
	DirEdgeCases = "edge-cases"
)

// Plan sets how many documents of each kind WriteSuite produces.
type Plan struct {
	Bills     int
	Labs      int
	EOBs      int
	EdgeCases bool
}

func DefaultPlan() Plan {
	return Plan{Bills: 10, Labs: 10, EOBs: 5, EdgeCases: true}
}

// WriteSuite writes every planned document under dir as a .json file and a
// printable .txt twin, and returns the written paths in order. Each document
// is checked against its schema before it is written.
func (g *Generator) WriteSuite(dir string, plan Plan) ([]string, error) {
	var written []string
	save := func(rel string, doc document.Document) error {
		paths, err := writeDocument(dir, rel, doc)
		written = append(written, paths...)
		return err
	}

	complexities := []document.Complexity{document.ComplexitySimple, document.ComplexityMedium, document.ComplexityComplex}
	for i := 1; i <= plan.Bills; i++ {
		c := complexities[g.rnd.Intn(len(complexities))]
		bill := g.Bill(c, g.rnd.Float64() < 0.3)
		if err := save(fmt.Sprintf("%s/bill_%03d_%s", DirBills, i, c), document.FromBill(bill)); err != nil {
			return written, err
		}
	}
	panels := Panels()
	for i := 1; i <= plan.Labs; i++ {
		p := panels[g.rnd.Intn(len(panels))]
		lab := g.LabResults(p, g.rnd.Float64() < 0.4)
		if err := save(fmt.Sprintf("%s/lab_%03d_%s", DirLabs, i, p), document.FromLabResults(lab)); err != nil {
			return written, err
		}
	}
	for i := 1; i <= plan.EOBs; i++ {
		eob := g.EOB(g.Bill(document.ComplexityMedium, false))
		if err := save(fmt.Sprintf("%s/eob_%03d", DirEOB, i), document.FromEOB(eob)); err != nil {
			return written, err
		}
	}
	if !plan.EdgeCases {
		return written, nil
	}
	edge := []struct {
		name string
		doc  document.Document
	}{
		{"bill_multiple_errors", document.FromBill(g.BillWithErrors(ErrorDuplicateCharge, ErrorUpcoding, ErrorWrongDate))},
		{"lab_critical_values", document.FromLabResults(g.CriticalLabResults())},
		{"eob_multiple_denials", document.FromEOB(g.DeniedEOB())},
	}
	for _, e := range edge {
		if err := save(DirEdgeCases+"/"+e.name, e.doc); err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeDocument(dir, rel string, doc document.Document) ([]string, error) {
	raw, err := encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	if err := document.Validate(doc.Type, raw); err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	base := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, err
	}
	jsonPath, txtPath := base+".json", base+".txt"
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(txtPath, []byte(document.FullText(doc)), 0o644); err != nil {
		return []string{jsonPath}, err
	}
	return []string{jsonPath, txtPath}, nil
}

// encode writes indented JSON without escaping "<" and ">" in reference
// ranges.
func encode(doc document.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc.Body()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
