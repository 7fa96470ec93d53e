package llm

import (
	"context"
	"fmt"
	"strings"
)

// Noop answers offline with a canned, keyword-shaped analysis of the
// document in the last user message. It never fails.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string  { return "noop" }
func (n *Noop) Model() string { return "noop" }

func (n *Noop) Chat(_ context.Context, req Request) (Completion, error) {
	var prompt string
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			prompt = m.Text
		}
	}
	text := answer(prompt)
	in := wordCount(prompt)
	out := wordCount(text)
	return Completion{
		Text:  text,
		Usage: Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}

func answer(prompt string) string {
	lower := strings.ToLower(prompt)
	var b strings.Builder
	b.WriteString("Summary in plain English:\n\n")

	switch {
	case strings.Contains(lower, "laboratory results"):
		b.WriteString("This report lists your lab values next to their normal ranges.\n")
	case strings.Contains(lower, "explanation of benefits"):
		b.WriteString("This EOB shows what your plan paid and the payment left for you.\n")
	case strings.Contains(lower, "medical bill"):
		b.WriteString("This bill lists each charge, the insurance payment and your cost.\n")
	default:
		b.WriteString("No document was attached, so only general guidance follows.\n")
	}

	normal := strings.Count(prompt, "✅")
	concerns := strings.Count(prompt, "⚠️")
	denied := strings.Count(prompt, "❌")
	if normal > 0 {
		fmt.Fprintf(&b, "✅ %d item(s) look as expected.\n", normal)
	}
	if concerns > 0 {
		fmt.Fprintf(&b, "⚠️ %d item(s) are outside the usual range.\n", concerns)
	}
	if denied > 0 {
		fmt.Fprintf(&b, "❌ %d item(s) need attention.\n", denied)
	}
	if strings.Contains(lower, "duplicate") {
		b.WriteString("Check the bill for any duplicate line items.\n")
	}

	b.WriteString("\nNext step: review these items with your provider's billing office.\n")
	b.WriteString("Confidence: 6/10, based only on the text provided.\n")
	b.WriteString("Disclaimer: this is not medical advice. Please consult your healthcare provider.\n")
	return b.String()
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
