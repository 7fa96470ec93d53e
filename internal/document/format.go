package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Glyphs used by the rendered documents and by model answers.
const (
	GlyphOK      = "✅"
	GlyphConcern = "⚠️"
	GlyphError   = "❌"
)

// StatusGlyph maps a lab value status to its glyph.
func StatusGlyph(status string) string {
	switch status {
	case StatusNormal:
		return GlyphOK
	case StatusHigh, StatusLow:
		return GlyphConcern
	default:
		return GlyphError
	}
}

// CoverageGlyph maps an EOB coverage status to its glyph.
func CoverageGlyph(status string) string {
	if status == CoverageCovered {
		return GlyphOK
	}
	return GlyphError
}

func money(v float64) string { return "$" + strconv.FormatFloat(v, 'f', 2, 64) }

func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// PromptText renders the compact form of doc that is appended to a prompt.
func PromptText(doc Document) string {
	var b strings.Builder
	switch {
	case doc.Type == TypeMedicalBill && doc.Bill != nil:
		bill := doc.Bill
		b.WriteString("MEDICAL BILL\n\n")
		fmt.Fprintf(&b, "Provider: %s\n", bill.Provider.Name)
		fmt.Fprintf(&b, "Patient: %s\n", bill.Patient.Name)
		fmt.Fprintf(&b, "Service Date: %s\n\nServices:\n", bill.ServiceDate)
		for _, s := range bill.Services {
			fmt.Fprintf(&b, "\nCode: %s\nDescription: %s\nCharge: %s\n", s.Code, s.Description, money(s.Charge))
		}
		fs := bill.FinancialSummary
		fmt.Fprintf(&b, "\nTotal Charges: %s\n", money(fs.TotalCharges))
		fmt.Fprintf(&b, "Insurance Payment: %s\n", money(fs.InsurancePayment))
		fmt.Fprintf(&b, "Patient Responsibility: %s\n", money(fs.PatientResponsibility))
	case doc.Type == TypeLabResults && doc.Lab != nil:
		lab := doc.Lab
		b.WriteString("LABORATORY RESULTS\n\n")
		fmt.Fprintf(&b, "Patient: %s\n", lab.Patient.Name)
		fmt.Fprintf(&b, "Test Date: %s\n\nResults:\n", lab.TestDate)
		for _, v := range lab.LabValues {
			writeLabValue(&b, v)
		}
	case doc.Type == TypeEOB && doc.EOB != nil:
		eob := doc.EOB
		b.WriteString("EOB (EXPLANATION OF BENEFITS)\n\n")
		fmt.Fprintf(&b, "Insurance Company: %s\n", eob.InsuranceCompany.Name)
		fmt.Fprintf(&b, "Patient: %s\n", eob.Patient.Name)
		fmt.Fprintf(&b, "Service Date: %s\n\nCoverage Details:\n", eob.ServiceDate)
		for _, s := range eob.Services {
			fmt.Fprintf(&b, "%s %s: %s -> Insurance: %s, Patient: %s\n",
				CoverageGlyph(s.CoverageStatus), s.Code, money(s.BilledAmount),
				money(s.InsurancePayment), money(s.PatientResponsibility))
			if s.DenialReason != nil && *s.DenialReason != "" {
				fmt.Fprintf(&b, "   Denial Reason: %s\n", *s.DenialReason)
			}
		}
	default:
		raw, err := json.MarshalIndent(doc.Body(), "", "  ")
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return b.String()
}

func writeLabValue(b *strings.Builder, v LabValue) {
	fmt.Fprintf(b, "%s %s: %s %s (normal: %s)\n",
		StatusGlyph(v.Status), v.TestName, number(v.Value), v.Unit, v.ReferenceRange)
}

// FullText renders the printable form of doc written next to its JSON file.
func FullText(doc Document) string {
	var b strings.Builder
	switch {
	case doc.Type == TypeMedicalBill && doc.Bill != nil:
		writeBill(&b, doc.Bill)
	case doc.Type == TypeLabResults && doc.Lab != nil:
		writeLab(&b, doc.Lab)
	case doc.Type == TypeEOB && doc.EOB != nil:
		writeEOB(&b, doc.EOB)
	default:
		return PromptText(doc)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func writeBill(b *strings.Builder, bill *MedicalBill) {
	b.WriteString("MEDICAL BILL\n\n")
	fmt.Fprintf(b, "Provider: %s\nNPI: %s\nSpecialty: %s\n\n",
		bill.Provider.Name, bill.Provider.NPI, bill.Provider.Specialty)
	fmt.Fprintf(b, "Patient: %s\nDate of Birth: %s\nMember ID: %s\nAddress: %s\n\n",
		bill.Patient.Name, bill.Patient.DOB, bill.Patient.MemberID, orNA(bill.Patient.Address))
	fmt.Fprintf(b, "Insurance Company: %s\nPolicy Number: %s\nGroup Number: %s\n\n",
		bill.Insurance.Company.Name, bill.Insurance.PolicyNumber, bill.Insurance.GroupNumber)
	fmt.Fprintf(b, "Service Date: %s\nBilling Date: %s\n\nSERVICES:\n", bill.ServiceDate, bill.BillingDate)
	for _, s := range bill.Services {
		qty := s.Quantity
		if qty == 0 {
			qty = 1
		}
		fmt.Fprintf(b, "\nCode: %s\nDescription: %s\nDate: %s\nQuantity: %d\nCharge: %s\n",
			s.Code, s.Description, orNA(s.Date), qty, money(s.Charge))
	}
	fs := bill.FinancialSummary
	b.WriteString("\nFINANCIAL SUMMARY:\n")
	fmt.Fprintf(b, "Total Charges: %s\n", money(fs.TotalCharges))
	fmt.Fprintf(b, "Insurance Payment: %s\n", money(fs.InsurancePayment))
	fmt.Fprintf(b, "Patient Responsibility: %s\n", money(fs.PatientResponsibility))
	fmt.Fprintf(b, "Deductible: %s\n", money(fs.Deductible))
	fmt.Fprintf(b, "Copay: %s\n\n", money(fs.Copay))
	fmt.Fprintf(b, "Diagnosis Codes: %s\n", strings.Join(bill.BillingCodes.DiagnosisCodes, ", "))
	fmt.Fprintf(b, "Procedure Codes: %s\n", strings.Join(bill.BillingCodes.ProcedureCodes, ", "))
}

func writeLab(b *strings.Builder, lab *LabResults) {
	b.WriteString("LABORATORY RESULTS\n\n")
	fmt.Fprintf(b, "Laboratory: %s\nNPI: %s\n\n", lab.Provider.Name, lab.Provider.NPI)
	fmt.Fprintf(b, "Patient: %s\nDate of Birth: %s\nGender: %s\nMember ID: %s\n\n",
		lab.Patient.Name, lab.Patient.DOB, orNA(lab.Patient.Gender), lab.Patient.MemberID)
	fmt.Fprintf(b, "Test Date: %s\nReport Date: %s\n\n", lab.TestDate, lab.ReportDate)
	fmt.Fprintf(b, "Ordering Physician: %s\nNPI: %s\nSpecialty: %s\n\nRESULTS:\n",
		lab.OrderingPhysician.Name, lab.OrderingPhysician.NPI, lab.OrderingPhysician.Specialty)
	for _, v := range lab.LabValues {
		b.WriteString("\n")
		writeLabValue(b, v)
	}
	if len(lab.TrendData) > 0 {
		b.WriteString("\nTREND DATA:\n")
		for _, tp := range lab.TrendData {
			fmt.Fprintf(b, "\nDate: %s\n", tp.Date)
			for _, v := range tp.Values {
				fmt.Fprintf(b, "  %s: %s %s\n", v.TestName, number(v.Value), v.Unit)
			}
		}
	}
	fmt.Fprintf(b, "\nCLINICAL NOTES:\n%s\n", lab.ClinicalNotes)
}

func writeEOB(b *strings.Builder, eob *EOB) {
	b.WriteString("EXPLANATION OF BENEFITS (EOB)\n\n")
	fmt.Fprintf(b, "Insurance Company: %s\nClaim Number: %s\n\n", eob.InsuranceCompany.Name, eob.ClaimNumber)
	fmt.Fprintf(b, "Patient: %s\nMember ID: %s\n\n", eob.Patient.Name, eob.Patient.MemberID)
	fmt.Fprintf(b, "Provider: %s\nNPI: %s\n\n", eob.Provider.Name, eob.Provider.NPI)
	fmt.Fprintf(b, "Service Date: %s\nProcessed Date: %s\n\nCOVERAGE DETAILS:\n", eob.ServiceDate, eob.ProcessedDate)
	for _, s := range eob.Services {
		fmt.Fprintf(b, "\n%s Code: %s\n", CoverageGlyph(s.CoverageStatus), s.Code)
		fmt.Fprintf(b, "   Description: %s\n   Date: %s\n", s.Description, orNA(s.Date))
		fmt.Fprintf(b, "   Billed Amount: %s\n", money(s.BilledAmount))
		fmt.Fprintf(b, "   Insurance Payment: %s\n", money(s.InsurancePayment))
		fmt.Fprintf(b, "   Patient Responsibility: %s\n", money(s.PatientResponsibility))
		if s.DenialReason != nil && *s.DenialReason != "" {
			fmt.Fprintf(b, "   Denial Reason: %s\n", *s.DenialReason)
		}
	}
}
