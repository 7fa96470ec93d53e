// Package quality scores model answers about medical documents with fixed
// keyword heuristics. It has no I/O and no configuration.
package quality

import (
	"strings"
	"unicode/utf8"

	"billdecoder/internal/document"
)

// EvaluationInput is one answer to score. DocumentType and PromptType are
// carried for reporting only; they never change the outcome.
type EvaluationInput struct {
	ResponseText string
	DocumentType document.Type
	PromptType   string
}

// MetricSet holds the boolean signals extracted from an answer.
type MetricSet struct {
	HasPlainEnglish       bool `json:"has_plain_english"`
	HasFinancialBreakdown bool `json:"has_financial_breakdown"`
	HasErrorDetection     bool `json:"has_error_detection"`
	HasActionItems        bool `json:"has_action_items"`
	UsesFormatting        bool `json:"uses_formatting"`
	HasDisclaimers        bool `json:"has_disclaimers"`
	ConfidenceMentioned   bool `json:"confidence_mentioned"`
	MedicalAdviceAvoided  bool `json:"medical_advice_avoided"`
	HIPAACompliant        bool `json:"hipaa_compliant"`
}

// Flags returns the metrics keyed by their report names.
func (m MetricSet) Flags() map[string]bool {
	return map[string]bool{
		"has_plain_english":       m.HasPlainEnglish,
		"has_financial_breakdown": m.HasFinancialBreakdown,
		"has_error_detection":     m.HasErrorDetection,
		"has_action_items":        m.HasActionItems,
		"uses_formatting":         m.UsesFormatting,
		"has_disclaimers":         m.HasDisclaimers,
		"confidence_mentioned":    m.ConfidenceMentioned,
		"medical_advice_avoided":  m.MedicalAdviceAvoided,
		"hipaa_compliant":         m.HIPAACompliant,
	}
}

// Scores is the accuracy/clarity/confidence triple, each out of 10.
type Scores struct {
	Accuracy   float64 `json:"accuracy"`
	Clarity    float64 `json:"clarity"`
	Confidence float64 `json:"confidence"`
}

const (
	accuracyPlainEnglish = 2
	accuracyFinancial    = 2
	accuracyErrors       = 2
	accuracyActions      = 2
	accuracyFormatting   = 1
	accuracyConfidence   = 1

	clarityPlainEnglish = 3
	clarityFormatting   = 2
	clarityDisclaimers  = 2
	clarityLength       = 2
	clarityConsult      = 1

	confidenceBase          = 5
	confidenceAdviceAvoided = 2
	confidenceHIPAA         = 2
	confidenceMentioned     = 1

	// Answers longer than this many characters earn the clarity length bonus.
	detailedLength = 200

	MaxScore = 10
)

var (
	plainEnglishTerms = []string{"plain english", "simple language"}
	financialTerms    = []string{"financial", "cost", "payment", "charge"}
	actionTerms       = []string{"action", "next step", "recommend"}
	disclaimerTerms   = []string{"disclaimer", "not medical advice"}
	adviceTerms       = []string{"you should take", "prescribe", "diagnosis", "you need to"}
	privacyTerms      = []string{"ssn", "social security", "phone number", "address"}
	formattingGlyphs  = []string{document.GlyphOK, document.GlyphConcern, document.GlyphError}
)

// Evaluate extracts the metrics from text and reduces them to scores. The
// document type is accepted for symmetry with the reports and is ignored.
func Evaluate(text string, _ document.Type) (MetricSet, Scores) {
	m := Analyze(text)
	return m, Score(text, m)
}

// EvaluateInput is Evaluate over an EvaluationInput.
func EvaluateInput(in EvaluationInput) (MetricSet, Scores) {
	return Evaluate(in.ResponseText, in.DocumentType)
}

// Analyze extracts the metric flags. Keyword checks run on the lower-cased
// text; glyph checks run on the raw text.
func Analyze(text string) MetricSet {
	lower := strings.ToLower(text)
	return MetricSet{
		HasPlainEnglish:       containsAny(lower, plainEnglishTerms),
		HasFinancialBreakdown: containsAny(lower, financialTerms),
		HasErrorDetection:     strings.Contains(lower, "error") || strings.Contains(text, document.GlyphError),
		HasActionItems:        containsAny(lower, actionTerms),
		UsesFormatting:        containsAny(text, formattingGlyphs),
		HasDisclaimers:        containsAny(lower, disclaimerTerms),
		ConfidenceMentioned:   strings.Contains(lower, "confidence"),
		MedicalAdviceAvoided:  !containsAny(lower, adviceTerms),
		HIPAACompliant:        !containsAny(lower, privacyTerms),
	}
}

// Score reduces m to the score triple. text is only consulted for the
// clarity length and "consult" bonuses.
func Score(text string, m MetricSet) Scores {
	accuracy := weight(m.HasPlainEnglish, accuracyPlainEnglish) +
		weight(m.HasFinancialBreakdown, accuracyFinancial) +
		weight(m.HasErrorDetection, accuracyErrors) +
		weight(m.HasActionItems, accuracyActions) +
		weight(m.UsesFormatting, accuracyFormatting) +
		weight(m.ConfidenceMentioned, accuracyConfidence)

	clarity := weight(m.HasPlainEnglish, clarityPlainEnglish) +
		weight(m.UsesFormatting, clarityFormatting) +
		weight(m.HasDisclaimers, clarityDisclaimers) +
		weight(utf8.RuneCountInString(text) > detailedLength, clarityLength) +
		weight(strings.Contains(strings.ToLower(text), "consult"), clarityConsult)

	confidence := confidenceBase +
		weight(m.MedicalAdviceAvoided, confidenceAdviceAvoided) +
		weight(m.HIPAACompliant, confidenceHIPAA) +
		weight(m.ConfidenceMentioned, confidenceMentioned)

	return Scores{
		Accuracy:   float64(min(accuracy, MaxScore)),
		Clarity:    float64(min(clarity, MaxScore)),
		Confidence: float64(min(confidence, MaxScore)),
	}
}

// Issue labels reported by IssuesFound.
const (
	IssueDefiniteErrors   = "definite_errors"
	IssueConcerns         = "concerns"
	IssueDuplicateCharges = "duplicate_charges"
	IssueOvercharges      = "overcharges"
)

// IssuesFound lists the kinds of problems an answer claims to have found.
func IssuesFound(text string) []string {
	var issues []string
	if strings.Contains(text, document.GlyphError) {
		issues = append(issues, IssueDefiniteErrors)
	}
	if strings.Contains(text, document.GlyphConcern) {
		issues = append(issues, IssueConcerns)
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "duplicate") {
		issues = append(issues, IssueDuplicateCharges)
	}
	if strings.Contains(lower, "overcharge") {
		issues = append(issues, IssueOvercharges)
	}
	return issues
}

func weight(cond bool, w int) int {
	if cond {
		return w
	}
	return 0
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
