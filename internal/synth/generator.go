// Package synth generates reproducible fake medical bills, lab reports and
// EOBs for prompt evaluation.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"billdecoder/internal/document"
)

const dateLayout = "2006-01-02"

// Generator draws every random value from one seeded source, so the same
// seed and clock always produce the same documents.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

type Option func(*Generator)

// WithClock fixes the date that generated documents are relative to.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(seed int64, opts ...Option) *Generator {
	g := &Generator{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) today() time.Time {
	y, m, d := g.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Bill generates a medical bill with 1-2 (simple), 2-4 (medium) or 4-8
// (complex) services. withErrors injects one random billing error.
func (g *Generator) Bill(c document.Complexity, withErrors bool) document.MedicalBill {
	services := g.services(c)
	if withErrors {
		services = g.injectError(services, g.pick(BillingErrors()))
	}
	return g.billFrom(services)
}

// BillWithErrors generates a complex bill carrying each of the named errors.
func (g *Generator) BillWithErrors(kinds ...string) document.MedicalBill {
	services := g.services(document.ComplexityComplex)
	for _, kind := range kinds {
		services = g.injectError(services, kind)
	}
	return g.billFrom(services)
}

func (g *Generator) billFrom(services []document.Service) document.MedicalBill {
	today := g.today()
	serviceDate := g.dateBetween(today.AddDate(0, 0, -30), today)

	var total float64
	for _, s := range services {
		total += s.Charge
	}
	insurance := total * g.uniform(0.6, 0.9)

	procedures := make([]string, 0, len(services))
	for _, s := range services {
		procedures = append(procedures, s.Code)
	}
	diagnoses := make([]string, g.intn(1, 3))
	for i := range diagnoses {
		diagnoses[i] = g.pick(diagnosisCodes)
	}

	bill := document.MedicalBill{
		DocumentType: document.TypeMedicalBill,
		Provider:     providers[g.rnd.Intn(len(providers))],
		Patient:      g.patient(),
		Insurance: document.Insurance{
			Company:      insurers[g.rnd.Intn(len(insurers))],
			PolicyNumber: "POL" + g.digits(7),
			GroupNumber:  "GRP" + g.digits(5),
		},
		ServiceDate: serviceDate.Format(dateLayout),
		BillingDate: g.dateBetween(serviceDate, today).Format(dateLayout),
		Services:    services,
		FinancialSummary: document.FinancialSummary{
			TotalCharges:          round2(total),
			InsurancePayment:      round2(insurance),
			PatientResponsibility: round2(total - insurance),
			Deductible:            round2(g.uniform(0, 500)),
			Copay:                 round2(g.uniform(0, 50)),
		},
		BillingCodes: document.BillingCodes{DiagnosisCodes: diagnoses, ProcedureCodes: procedures},
	}
	bill.Patient.Address = g.address()
	return bill
}

func (g *Generator) services(c document.Complexity) []document.Service {
	out := g.sampleServices(simpleServices, g.intn(1, 2), false)
	if c == document.ComplexityMedium || c == document.ComplexityComplex {
		out = append(out, g.sampleServices(mediumServices, g.intn(1, 2), false)...)
	}
	if c == document.ComplexityComplex {
		out = append(out, g.sampleServices(complexServices, g.intn(2, 4), true)...)
	}
	return out
}

func (g *Generator) sampleServices(pool []serviceTemplate, n int, multiQty bool) []document.Service {
	today := g.today()
	out := make([]document.Service, 0, n)
	for _, i := range g.rnd.Perm(len(pool))[:n] {
		tmpl := pool[i]
		qty := 1
		if multiQty {
			qty = g.intn(1, 3)
		}
		out = append(out, document.Service{
			Code:        tmpl.Code,
			Description: tmpl.Description,
			Charge:      round2(tmpl.BaseCharge * g.uniform(0.8, 1.2)),
			Quantity:    qty,
			Date:        g.dateBetween(today.AddDate(0, 0, -30), today).Format(dateLayout),
		})
	}
	return out
}

func (g *Generator) injectError(services []document.Service, kind string) []document.Service {
	switch kind {
	case ErrorDuplicateCharge:
		dup := services[g.rnd.Intn(len(services))]
		dup.Charge = round2(dup.Charge * 1.1)
		services = append(services, dup)
	case ErrorUpcoding:
		for i := range services {
			if services[i].Code == "99213" || services[i].Code == "36415" {
				services[i].Code = g.pick([]string{"99214", "99284"})
				services[i].Charge = round2(services[i].Charge * 1.5)
			}
		}
	case ErrorMathematical:
		for i := range services {
			if g.rnd.Float64() < 0.3 {
				services[i].Charge = round2(services[i].Charge * g.uniform(1.1, 1.3))
			}
		}
	case ErrorWrongDate:
		today := g.today()
		for i := range services {
			if g.rnd.Float64() < 0.5 {
				services[i].Date = g.dateBetween(today.AddDate(0, 0, -60), today.AddDate(0, 0, -31)).Format(dateLayout)
			}
		}
	case ErrorUnbundling:
		out := make([]document.Service, 0, len(services)+1)
		for _, s := range services {
			if s.Code != "80053" {
				out = append(out, s)
				continue
			}
			out = append(out,
				document.Service{Code: "80048", Description: "Basic metabolic panel", Charge: round2(s.Charge * 0.6), Quantity: 1, Date: s.Date},
				document.Service{Code: "80051", Description: "Electrolytes", Charge: round2(s.Charge * 0.4), Quantity: 1, Date: s.Date},
			)
		}
		services = out
	}
	return services
}

// LabResults generates a lab report for panel. withAbnormal lets roughly 30%
// of values fall outside their range.
func (g *Generator) LabResults(panel Panel, withAbnormal bool) document.LabResults {
	today := g.today()
	testDate := g.dateBetween(today.AddDate(0, 0, -30), today)

	tests := selectTests(panel)
	values := make([]document.LabValue, 0, len(tests))
	for _, t := range tests {
		values = append(values, g.labValue(t, withAbnormal))
	}

	var trend []document.TrendPoint
	if panel != PanelBasic && g.rnd.Float64() < 0.7 {
		trend = g.trend(tests, testDate)
	}

	patient := g.patient()
	patient.Gender = g.pick([]string{"M", "F"})
	return document.LabResults{
		DocumentType: document.TypeLabResults,
		Provider:     labProviders[g.rnd.Intn(len(labProviders))],
		Patient:      patient,
		TestDate:     testDate.Format(dateLayout),
		ReportDate:   g.dateBetween(testDate, today).Format(dateLayout),
		LabValues:    values,
		TrendData:    trend,
		OrderingPhysician: document.Physician{
			Name:      g.name(),
			NPI:       g.digits(10),
			Specialty: g.pick(physicianSpecialties),
		},
		ClinicalNotes: ClinicalNotes(values),
	}
}

// CriticalLabResults generates a full panel where about half of the abnormal
// values are escalated to critical.
func (g *Generator) CriticalLabResults() document.LabResults {
	lab := g.LabResults(PanelFull, true)
	for i, v := range lab.LabValues {
		if (v.Status == document.StatusHigh || v.Status == document.StatusLow) && g.rnd.Float64() < 0.5 {
			lab.LabValues[i].Status = document.StatusCritical
		}
	}
	lab.ClinicalNotes = ClinicalNotes(lab.LabValues)
	return lab
}

func selectTests(panel Panel) []labTest {
	cats := panel.categories()
	var out []labTest
	for _, t := range labTests {
		for _, c := range cats {
			if t.Category == c {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (g *Generator) labValue(t labTest, withAbnormal bool) document.LabValue {
	normal := g.normalValue(t.Range)
	value, status := normal, document.StatusNormal
	if withAbnormal && g.rnd.Float64() < 0.3 {
		if g.rnd.Float64() < 0.5 {
			value, status = normal*g.uniform(1.5, 3.0), document.StatusHigh
		} else {
			value, status = normal*g.uniform(0.3, 0.7), document.StatusLow
		}
		if value > normal*2.5 || value < normal*0.5 {
			status = document.StatusCritical
		}
	}
	return document.LabValue{
		TestName:       t.Name,
		Value:          round2(value),
		Unit:           t.Unit,
		ReferenceRange: t.Range,
		Status:         status,
	}
}

// normalValue draws a value inside a reference range written as "<x", ">x"
// or "a-b".
func (g *Generator) normalValue(ref string) float64 {
	switch {
	case strings.HasPrefix(ref, "<"):
		hi := parseFloat(ref[1:])
		return g.uniform(hi*0.3, hi*0.9)
	case strings.HasPrefix(ref, ">"):
		lo := parseFloat(ref[1:])
		return g.uniform(lo*1.1, lo*1.5)
	default:
		lo, hi, ok := strings.Cut(ref, "-")
		if !ok {
			return parseFloat(ref)
		}
		return g.uniform(parseFloat(lo), parseFloat(hi))
	}
}

func (g *Generator) trend(tests []labTest, current time.Time) []document.TrendPoint {
	points := make([]document.TrendPoint, 0, 4)
	for _, monthsAgo := range []int{3, 6, 9, 12} {
		n := g.intn(min(3, len(tests)), len(tests))
		values := make([]document.LabValue, 0, n)
		for _, i := range g.rnd.Perm(len(tests))[:n] {
			values = append(values, g.labValue(tests[i], false))
		}
		points = append(points, document.TrendPoint{
			Date:   current.AddDate(0, 0, -monthsAgo*30).Format(dateLayout),
			Values: values,
		})
	}
	return points
}

// ClinicalNotes summarizes the abnormal values of a report.
func ClinicalNotes(values []document.LabValue) string {
	var notes []string
	for _, v := range values {
		reading := fmt.Sprintf("%s %s (normal: %s)", strconv.FormatFloat(v.Value, 'f', -1, 64), v.Unit, v.ReferenceRange)
		switch v.Status {
		case document.StatusNormal:
			continue
		case document.StatusCritical:
			notes = append(notes, fmt.Sprintf("CRITICAL value for %s: %s. Immediate attention required.", v.TestName, reading))
		case document.StatusHigh:
			notes = append(notes, fmt.Sprintf("Elevated %s: %s.", v.TestName, reading))
		default:
			notes = append(notes, fmt.Sprintf("Low %s: %s.", v.TestName, reading))
		}
	}
	if len(notes) == 0 {
		return "All laboratory values are within normal limits. Continue current treatment as prescribed."
	}
	return strings.Join(notes, " ") + " Recommend consultation with primary care physician."
}

// EOB derives an explanation of benefits from bill. Each service is denied
// with 10% probability.
func (g *Generator) EOB(bill document.MedicalBill) document.EOB {
	serviceDate, err := time.Parse(dateLayout, bill.ServiceDate)
	if err != nil {
		serviceDate = g.today()
	}
	eob := document.EOB{
		DocumentType:     document.TypeEOB,
		InsuranceCompany: bill.Insurance.Company,
		Patient:          bill.Patient,
		Provider:         bill.Provider,
		ServiceDate:      bill.ServiceDate,
		ProcessedDate:    g.dateBetween(serviceDate, g.today()).Format(dateLayout),
		ClaimNumber:      "CLM" + g.digits(7),
		Services:         make([]document.EOBService, 0, len(bill.Services)),
	}
	for _, s := range bill.Services {
		line := document.EOBService{
			Code:           s.Code,
			Description:    s.Description,
			Date:           s.Date,
			BilledAmount:   s.Charge,
			CoverageStatus: document.CoverageCovered,
		}
		if g.rnd.Float64() < 0.1 {
			g.deny(&line, denialReasons)
		} else {
			paid := s.Charge * g.uniform(0.7, 0.9)
			line.InsurancePayment = round2(paid)
			line.PatientResponsibility = round2(s.Charge - paid)
		}
		eob.Services = append(eob.Services, line)
	}
	return eob
}

// DeniedEOB derives an EOB from a medium bill and denies about 70% of its
// services.
func (g *Generator) DeniedEOB() document.EOB {
	eob := g.EOB(g.Bill(document.ComplexityMedium, false))
	for i := range eob.Services {
		if g.rnd.Float64() < 0.7 {
			g.deny(&eob.Services[i], denialReasons[:4])
		}
	}
	return eob
}

func (g *Generator) deny(line *document.EOBService, reasons []string) {
	reason := g.pick(reasons)
	line.CoverageStatus = document.CoverageDenied
	line.InsurancePayment = 0
	line.PatientResponsibility = line.BilledAmount
	line.DenialReason = &reason
}

func (g *Generator) patient() document.Patient {
	today := g.today()
	dob := g.dateBetween(today.AddDate(-80, 0, 0), today.AddDate(-18, 0, 0))
	return document.Patient{
		Name:     g.name(),
		DOB:      dob.Format(dateLayout),
		MemberID: g.letters(3) + g.digits(7),
	}
}

func (g *Generator) name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func (g *Generator) address() string {
	c := cities[g.rnd.Intn(len(cities))]
	return fmt.Sprintf("%d %s\n%s, %s %s", g.intn(10, 9999), g.pick(streets), c.City, c.State, c.Zip)
}

func (g *Generator) pick(items []string) string {
	return items[g.rnd.Intn(len(items))]
}

// intn returns a value in [lo, hi].
func (g *Generator) intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func (g *Generator) dateBetween(start, end time.Time) time.Time {
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, g.rnd.Intn(days+1))
}

func (g *Generator) digits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + g.rnd.Intn(10))
	}
	return string(b)
}

func (g *Generator) letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('A' + g.rnd.Intn(26))
	}
	return string(b)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
