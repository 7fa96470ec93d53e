package document

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleBill() MedicalBill {
	return MedicalBill{
		Provider:    Provider{Name: "HealthCare Medical Center", NPI: "1234567890", Specialty: "Internal Medicine"},
		Patient:     Patient{Name: "Jane Roe", DOB: "1980-02-03", MemberID: "ABC1234567", Address: "1 Main St"},
		Insurance:   Insurance{Company: InsuranceCompany{Name: "Aetna", Code: "AET"}, PolicyNumber: "POL1234567", GroupNumber: "GRP12345"},
		ServiceDate: "2026-09-01",
		BillingDate: "2026-09-10",
		Services: []Service{
			{Code: "99213", Description: "Office visit", Charge: 150, Quantity: 1, Date: "2026-09-01"},
			{Code: "36415", Description: "Venipuncture", Charge: 25.5, Quantity: 1, Date: "2026-09-01"},
		},
		FinancialSummary: FinancialSummary{TotalCharges: 175.5, InsurancePayment: 140.4, PatientResponsibility: 35.1},
		BillingCodes:     BillingCodes{DiagnosisCodes: []string{"I10"}, ProcedureCodes: []string{"99213", "36415"}},
	}
}

func TestParseRoundTripBill(t *testing.T) {
	doc := FromBill(sampleBill())
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Type != TypeMedicalBill {
		t.Fatalf("expected medical_bill, got %s", parsed.Type)
	}
	if diff := cmp.Diff(doc.Bill, parsed.Bill); diff != "" {
		t.Fatalf("bill mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := Parse([]byte(`{"document_type":"invoice"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestParseRejectsInvalidLabStatus(t *testing.T) {
	raw := `{
		"document_type": "lab_results",
		"patient": {"name": "Jane Roe"},
		"test_date": "2026-09-01",
		"lab_values": [{"test_name": "Glucose", "value": 90, "unit": "mg/dL", "reference_range": "70-100", "status": "fine"}]
	}`
	_, err := Parse([]byte(raw))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected schema failure, got %v", err)
	}
}

func TestParseAcceptsNullDenialReason(t *testing.T) {
	raw := `{
		"document_type": "eob",
		"insurance_company": {"name": "Cigna", "code": "CIG"},
		"patient": {"name": "Jane Roe"},
		"service_date": "2026-09-01",
		"services": [
			{"code": "99213", "billed_amount": 150, "insurance_payment": 120, "patient_responsibility": 30, "coverage_status": "covered", "denial_reason": null},
			{"code": "93000", "billed_amount": 45, "insurance_payment": 0, "patient_responsibility": 45, "coverage_status": "denied", "denial_reason": "Prior authorization required"}
		]
	}`
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.EOB.Services[0].DenialReason != nil {
		t.Fatalf("expected nil denial reason")
	}
	text := PromptText(doc)
	if !strings.Contains(text, "❌ 93000") || !strings.Contains(text, "Denial Reason: Prior authorization required") {
		t.Fatalf("expected denied line with reason, got:\n%s", text)
	}
	if strings.Count(text, "Denial Reason") != 1 {
		t.Fatalf("expected a single denial reason line")
	}
}

func TestLoadWrapsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"document_type":"medical_bill"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "bad.json") {
		t.Fatalf("expected error mentioning path, got %v", err)
	}
}

func TestComplexity(t *testing.T) {
	bill := sampleBill()
	if got := FromBill(bill).Complexity(); got != ComplexityMedium {
		t.Fatalf("expected medium for 2 services, got %s", got)
	}
	bill.Services = append(bill.Services, bill.Services...)
	if got := FromBill(bill).Complexity(); got != ComplexityComplex {
		t.Fatalf("expected complex for 4 services, got %s", got)
	}
	lab := LabResults{LabValues: make([]LabValue, 5)}
	if got := FromLabResults(lab).Complexity(); got != ComplexityMedium {
		t.Fatalf("expected medium for 5 values, got %s", got)
	}
	if got := FromEOB(EOB{Services: make([]EOBService, 9)}).Complexity(); got != ComplexitySimple {
		t.Fatalf("expected EOB to be simple, got %s", got)
	}
}

func TestPromptTextLabGlyphs(t *testing.T) {
	doc := FromLabResults(LabResults{
		Patient:  Patient{Name: "Jane Roe"},
		TestDate: "2026-09-01",
		LabValues: []LabValue{
			{TestName: "Glucose", Value: 88.5, Unit: "mg/dL", ReferenceRange: "70-100", Status: StatusNormal},
			{TestName: "LDL Cholesterol", Value: 180, Unit: "mg/dL", ReferenceRange: "<100", Status: StatusHigh},
			{TestName: "Creatinine", Value: 4.1, Unit: "mg/dL", ReferenceRange: "0.6-1.2", Status: StatusCritical},
		},
	})
	text := PromptText(doc)
	for _, want := range []string{
		"✅ Glucose: 88.5 mg/dL (normal: 70-100)",
		"⚠️ LDL Cholesterol: 180 mg/dL (normal: <100)",
		"❌ Creatinine: 4.1 mg/dL (normal: 0.6-1.2)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestFullTextBill(t *testing.T) {
	text := FullText(FromBill(sampleBill()))
	for _, want := range []string{"MEDICAL BILL", "NPI: 1234567890", "Charge: $25.50", "Procedure Codes: 99213, 36415"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestParseTypeNormalizes(t *testing.T) {
	got, err := ParseType(" EOB ")
	if err != nil || got != TypeEOB {
		t.Fatalf("expected eob, got %s (%v)", got, err)
	}
}
