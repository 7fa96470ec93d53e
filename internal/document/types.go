package document

import (
	"errors"
	"strings"
)

// Type is the document_type discriminator carried by every test document.
type Type string

const (
	TypeMedicalBill Type = "medical_bill"
	TypeLabResults  Type = "lab_results"
	TypeEOB         Type = "eob"
)

var ErrUnknownType = errors.New("unknown document type")

// Types lists the supported document types in matrix order.
func Types() []Type {
	return []Type{TypeMedicalBill, TypeLabResults, TypeEOB}
}

func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return t, ErrUnknownType
	}
	return t, nil
}

func (t Type) Valid() bool {
	switch t {
	case TypeMedicalBill, TypeLabResults, TypeEOB:
		return true
	default:
		return false
	}
}

func (t Type) String() string { return string(t) }

// Label is the human-readable name used in reports.
func (t Type) Label() string {
	switch t {
	case TypeMedicalBill:
		return "Medical Bill"
	case TypeLabResults:
		return "Lab Results"
	case TypeEOB:
		return "Explanation of Benefits"
	default:
		return string(t)
	}
}

type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

type Provider struct {
	Name      string `json:"name"`
	NPI       string `json:"npi"`
	Specialty string `json:"specialty"`
}

type Patient struct {
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	MemberID string `json:"member_id"`
	Address  string `json:"address,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

type InsuranceCompany struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Insurance struct {
	Company      InsuranceCompany `json:"company"`
	PolicyNumber string           `json:"policy_number"`
	GroupNumber  string           `json:"group_number"`
}

type Service struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Charge      float64 `json:"charge"`
	Quantity    int     `json:"quantity"`
	Date        string  `json:"date"`
}

type FinancialSummary struct {
	TotalCharges          float64 `json:"total_charges"`
	InsurancePayment      float64 `json:"insurance_payment"`
	PatientResponsibility float64 `json:"patient_responsibility"`
	Deductible            float64 `json:"deductible"`
	Copay                 float64 `json:"copay"`
}

type BillingCodes struct {
	DiagnosisCodes []string `json:"diagnosis_codes"`
	ProcedureCodes []string `json:"procedure_codes"`
}

type MedicalBill struct {
	DocumentType     Type             `json:"document_type"`
	Provider         Provider         `json:"provider"`
	Patient          Patient          `json:"patient"`
	Insurance        Insurance        `json:"insurance"`
	ServiceDate      string           `json:"service_date"`
	BillingDate      string           `json:"billing_date"`
	Services         []Service        `json:"services"`
	FinancialSummary FinancialSummary `json:"financial_summary"`
	BillingCodes     BillingCodes     `json:"billing_codes"`
}

// Lab value statuses.
const (
	StatusNormal   = "normal"
	StatusHigh     = "high"
	StatusLow      = "low"
	StatusCritical = "critical"
)

type LabValue struct {
	TestName       string  `json:"test_name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	ReferenceRange string  `json:"reference_range"`
	Status         string  `json:"status"`
}

type TrendPoint struct {
	Date   string     `json:"date"`
	Values []LabValue `json:"values"`
}

type Physician struct {
	Name      string `json:"name"`
	NPI       string `json:"npi"`
	Specialty string `json:"specialty"`
}

type LabResults struct {
	DocumentType      Type         `json:"document_type"`
	Provider          Provider     `json:"provider"`
	Patient           Patient      `json:"patient"`
	TestDate          string       `json:"test_date"`
	ReportDate        string       `json:"report_date"`
	LabValues         []LabValue   `json:"lab_values"`
	TrendData         []TrendPoint `json:"trend_data"`
	OrderingPhysician Physician    `json:"ordering_physician"`
	ClinicalNotes     string       `json:"clinical_notes"`
}

// EOB coverage statuses.
const (
	CoverageCovered = "covered"
	CoverageDenied  = "denied"
)

type EOBService struct {
	Code                  string  `json:"code"`
	Description           string  `json:"description"`
	Date                  string  `json:"date"`
	BilledAmount          float64 `json:"billed_amount"`
	InsurancePayment      float64 `json:"insurance_payment"`
	PatientResponsibility float64 `json:"patient_responsibility"`
	CoverageStatus        string  `json:"coverage_status"`
	DenialReason          *string `json:"denial_reason"`
}

type EOB struct {
	DocumentType     Type             `json:"document_type"`
	InsuranceCompany InsuranceCompany `json:"insurance_company"`
	Patient          Patient          `json:"patient"`
	Provider         Provider         `json:"provider"`
	ServiceDate      string           `json:"service_date"`
	ProcessedDate    string           `json:"processed_date"`
	ClaimNumber      string           `json:"claim_number"`
	Services         []EOBService     `json:"services"`
}
