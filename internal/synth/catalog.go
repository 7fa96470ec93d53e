package synth

import "billdecoder/internal/document"

type serviceTemplate struct {
	Code        string
	Description string
	BaseCharge  float64
}

var (
	simpleServices = []serviceTemplate{
		{"99213", "Office visit", 150},
		{"36415", "Venipuncture", 25},
		{"80053", "Basic metabolic panel", 80},
	}
	mediumServices = []serviceTemplate{
		{"93000", "Electrocardiogram", 45},
		{"99214", "Detailed office visit", 200},
		{"85025", "Complete blood count", 60},
	}
	complexServices = []serviceTemplate{
		{"99284", "Emergency department visit, level 4", 800},
		{"99285", "Emergency department visit, level 5", 1200},
		{"36415", "Additional venipuncture", 25},
		{"80053", "Comprehensive metabolic panel", 120},
	}
)

// Codes drawn for billing_codes.diagnosis_codes. The list mixes CPT, ICD-10
// and HCPCS codes.
var diagnosisCodes = []string{
	"99213", "99214", "36415", "80053", "85025", "93000",
	"99281", "99282", "99283", "99284", "99285",
	"Z00.00", "I10", "E11.9", "M79.3", "R50.9", "K21.9",
	"A4253", "J1815", "G0008",
}

type labTest struct {
	Name     string
	Unit     string
	Range    string
	Category string
}

var labTests = []labTest{
	{"Glucose", "mg/dL", "70-100", "metabolic"},
	{"Total Cholesterol", "mg/dL", "<200", "lipid"},
	{"HDL Cholesterol", "mg/dL", ">40", "lipid"},
	{"LDL Cholesterol", "mg/dL", "<100", "lipid"},
	{"Triglycerides", "mg/dL", "<150", "lipid"},
	{"Hemoglobin", "g/dL", "12.0-15.5", "CBC"},
	{"Hematocrit", "%", "36-46", "CBC"},
	{"White Blood Cells", "K/uL", "4.5-11.0", "CBC"},
	{"Platelets", "K/uL", "150-450", "CBC"},
	{"Creatinine", "mg/dL", "0.6-1.2", "renal"},
	{"ALT", "U/L", "7-56", "liver"},
	{"AST", "U/L", "10-40", "liver"},
	{"TSH", "mIU/L", "0.4-4.0", "thyroid"},
	{"Free T4", "ng/dL", "0.8-1.8", "thyroid"},
}

// Panel selects which lab test categories a report contains.
type Panel string

const (
	PanelBasic         Panel = "basic"
	PanelComprehensive Panel = "comprehensive"
	PanelFull          Panel = "full"
)

func Panels() []Panel {
	return []Panel{PanelBasic, PanelComprehensive, PanelFull}
}

func (p Panel) categories() []string {
	switch p {
	case PanelBasic:
		return []string{"metabolic", "CBC"}
	case PanelComprehensive:
		return []string{"metabolic", "lipid", "CBC", "renal"}
	default:
		return []string{"metabolic", "lipid", "CBC", "renal", "liver", "thyroid"}
	}
}

var providers = []document.Provider{
	{Name: "HealthCare Medical Center", NPI: "1234567890", Specialty: "Internal Medicine"},
	{Name: "CardioPlus Clinic", NPI: "2345678901", Specialty: "Cardiology"},
	{Name: "LabCorp Diagnostics", NPI: "3456789012", Specialty: "Laboratory Services"},
	{Name: "City General Hospital", NPI: "4567890123", Specialty: "Emergency Medicine"},
	{Name: "Endocrine Care Center", NPI: "5678901234", Specialty: "Endocrinology"},
	{Name: "Family Practice Associates", NPI: "6789012345", Specialty: "Family Medicine"},
	{Name: "Metro Urgent Care", NPI: "7890123456", Specialty: "Urgent Care"},
	{Name: "Regional Medical Group", NPI: "8901234567", Specialty: "Primary Care"},
}

var labProviders = []document.Provider{providers[2]}

var insurers = []document.InsuranceCompany{
	{Name: "Blue Cross Blue Shield", Code: "BCBS"},
	{Name: "Aetna", Code: "AET"},
	{Name: "Cigna", Code: "CIG"},
	{Name: "UnitedHealthcare", Code: "UHC"},
	{Name: "Humana", Code: "HUM"},
	{Name: "Kaiser Permanente", Code: "KP"},
	{Name: "Anthem", Code: "ANT"},
	{Name: "Medicare", Code: "MED"},
}

var denialReasons = []string{
	"Service not covered under plan",
	"Prior authorization required",
	"Out-of-network provider",
	"Benefit limit exceeded",
	"Medical necessity not established",
}

var physicianSpecialties = []string{"Internal Medicine", "Cardiology", "Endocrinology", "Family Medicine"}

var (
	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
		"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
		"Thomas", "Sarah", "Carlos", "Maria", "Wei", "Aisha", "Daniel", "Karen",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas", "Taylor",
		"Moore", "Jackson", "Martin", "Lee", "Chen", "Patel", "Nguyen", "Clark",
	}
	streets = []string{"Oak St", "Maple Ave", "Cedar Ln", "Pine Rd", "Elm Dr", "Washington Blvd", "Lakeview Ct"}
	cities  = []struct{ City, State, Zip string }{
		{"Springfield", "IL", "62701"},
		{"Austin", "TX", "73301"},
		{"Denver", "CO", "80202"},
		{"Columbus", "OH", "43004"},
		{"Portland", "OR", "97201"},
		{"Raleigh", "NC", "27601"},
	}
)

// Billing error kinds injected into bills.
const (
	ErrorDuplicateCharge = "duplicate_charge"
	ErrorUpcoding        = "upcoding"
	ErrorMathematical    = "mathematical_error"
	ErrorWrongDate       = "wrong_date"
	ErrorUnbundling      = "unbundling"
)

func BillingErrors() []string {
	return []string{ErrorDuplicateCharge, ErrorUpcoding, ErrorMathematical, ErrorWrongDate, ErrorUnbundling}
}
