package synth

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"billdecoder/internal/document"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }

func TestSameSeedSameDocuments(t *testing.T) {
	a := New(42, WithClock(fixedNow))
	b := New(42, WithClock(fixedNow))
	if diff := cmp.Diff(a.Bill(document.ComplexityComplex, true), b.Bill(document.ComplexityComplex, true)); diff != "" {
		t.Fatalf("bills differ for the same seed:\n%s", diff)
	}
	if diff := cmp.Diff(a.LabResults(PanelFull, true), b.LabResults(PanelFull, true)); diff != "" {
		t.Fatalf("lab results differ for the same seed:\n%s", diff)
	}
}

func TestBillTotals(t *testing.T) {
	g := New(7, WithClock(fixedNow))
	for i := 0; i < 50; i++ {
		bill := g.Bill(document.ComplexityMedium, i%2 == 0)
		var sum float64
		for _, s := range bill.Services {
			sum += s.Charge
		}
		fs := bill.FinancialSummary
		if math.Abs(fs.TotalCharges-sum) > 0.011 {
			t.Fatalf("total %v does not match services %v", fs.TotalCharges, sum)
		}
		share := fs.InsurancePayment / fs.TotalCharges
		if share < 0.59 || share > 0.91 {
			t.Fatalf("insurance share %v outside 60-90%%", share)
		}
		if math.Abs(fs.InsurancePayment+fs.PatientResponsibility-fs.TotalCharges) > 0.011 {
			t.Fatalf("payment split does not add up: %+v", fs)
		}
		if len(bill.BillingCodes.ProcedureCodes) != len(bill.Services) {
			t.Fatalf("expected a procedure code per service")
		}
	}
}

func TestServiceCountsByComplexity(t *testing.T) {
	g := New(3, WithClock(fixedNow))
	for i := 0; i < 30; i++ {
		if n := len(g.Bill(document.ComplexitySimple, false).Services); n < 1 || n > 2 {
			t.Fatalf("simple bill has %d services", n)
		}
		if n := len(g.Bill(document.ComplexityComplex, false).Services); n < 4 || n > 8 {
			t.Fatalf("complex bill has %d services", n)
		}
	}
}

func TestUnbundlingSplitsPanel(t *testing.T) {
	g := New(1, WithClock(fixedNow))
	services := []document.Service{{Code: "80053", Description: "Comprehensive metabolic panel", Charge: 100, Quantity: 1, Date: "2026-09-01"}}
	got := g.injectError(services, ErrorUnbundling)
	want := []document.Service{
		{Code: "80048", Description: "Basic metabolic panel", Charge: 60, Quantity: 1, Date: "2026-09-01"},
		{Code: "80051", Description: "Electrolytes", Charge: 40, Quantity: 1, Date: "2026-09-01"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unbundling mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalValueRespectsRange(t *testing.T) {
	g := New(9)
	for i := 0; i < 200; i++ {
		if v := g.normalValue("<200"); v < 60 || v > 180 {
			t.Fatalf("value %v outside <200 draw", v)
		}
		if v := g.normalValue(">40"); v < 44 || v > 60 {
			t.Fatalf("value %v outside >40 draw", v)
		}
		if v := g.normalValue("0.6-1.2"); v < 0.6 || v > 1.2 {
			t.Fatalf("value %v outside 0.6-1.2", v)
		}
	}
}

func TestLabPanels(t *testing.T) {
	g := New(5, WithClock(fixedNow))
	if n := len(g.LabResults(PanelBasic, false).LabValues); n != 5 {
		t.Fatalf("expected 5 basic values, got %d", n)
	}
	full := g.LabResults(PanelFull, false)
	if len(full.LabValues) != len(labTests) {
		t.Fatalf("expected every test in the full panel, got %d", len(full.LabValues))
	}
	for _, v := range full.LabValues {
		if v.Status != document.StatusNormal {
			t.Fatalf("expected only normal values, got %s for %s", v.Status, v.TestName)
		}
	}
	if !strings.HasPrefix(full.ClinicalNotes, "All laboratory values are within normal limits") {
		t.Fatalf("unexpected notes %q", full.ClinicalNotes)
	}
}

func TestClinicalNotes(t *testing.T) {
	notes := ClinicalNotes([]document.LabValue{
		{TestName: "Glucose", Value: 250, Unit: "mg/dL", ReferenceRange: "70-100", Status: document.StatusCritical},
		{TestName: "HDL Cholesterol", Value: 30, Unit: "mg/dL", ReferenceRange: ">40", Status: document.StatusLow},
	})
	want := "CRITICAL value for Glucose: 250 mg/dL (normal: 70-100). Immediate attention required. " +
		"Low HDL Cholesterol: 30 mg/dL (normal: >40). Recommend consultation with primary care physician."
	if notes != want {
		t.Fatalf("unexpected notes:\n%s", notes)
	}
}

func TestDeniedEOB(t *testing.T) {
	g := New(11, WithClock(fixedNow))
	for i := 0; i < 10; i++ {
		eob := g.DeniedEOB()
		for _, s := range eob.Services {
			switch s.CoverageStatus {
			case document.CoverageDenied:
				if s.DenialReason == nil || s.InsurancePayment != 0 || s.PatientResponsibility != s.BilledAmount {
					t.Fatalf("inconsistent denied line %+v", s)
				}
			case document.CoverageCovered:
				if s.DenialReason != nil {
					t.Fatalf("covered line with denial reason %+v", s)
				}
			default:
				t.Fatalf("unexpected coverage status %q", s.CoverageStatus)
			}
		}
	}
}

func TestWriteSuite(t *testing.T) {
	dir := t.TempDir()
	g := New(2026, WithClock(fixedNow))
	paths, err := g.WriteSuite(dir, Plan{Bills: 3, Labs: 2, EOBs: 2, EdgeCases: true})
	if err != nil {
		t.Fatalf("write suite: %v", err)
	}
	if len(paths) != 2*(3+2+2+3) {
		t.Fatalf("expected 20 files, got %d", len(paths))
	}
	for _, p := range paths {
		if filepath.Ext(p) != ".json" {
			continue
		}
		doc, err := document.Load(p)
		if err != nil {
			t.Fatalf("written document does not load: %v", err)
		}
		if strings.Contains(p, string(filepath.Separator)+DirLabs+string(filepath.Separator)) && doc.Type != document.TypeLabResults {
			t.Fatalf("expected lab document in %s", p)
		}
	}
	raw, err := os.ReadFile(filepath.Join(dir, DirEdgeCases, "lab_critical_values.json"))
	if err != nil {
		t.Fatalf("read edge case: %v", err)
	}
	if strings.Contains(string(raw), `\u003c`) || !strings.Contains(string(raw), `"<200"`) {
		t.Fatalf("expected unescaped reference ranges")
	}
	if _, err := os.Stat(filepath.Join(dir, DirEOB, "eob_002.txt")); err != nil {
		t.Fatalf("expected text twin: %v", err)
	}
}
