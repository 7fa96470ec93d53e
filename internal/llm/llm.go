package llm

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNotConfigured = errors.New("llm provider not configured")

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Request struct {
	Messages    []Message
	Temperature float64
	TopP        float64
}

// UserMessage builds a single-turn request.
func UserMessage(text string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Text: text}}}
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

type Completion struct {
	Text    string
	Usage   Usage
	Latency time.Duration
}

// Provider is a chat model. Chat makes one attempt; callers decide what a
// failure means.
type Provider interface {
	Chat(ctx context.Context, req Request) (Completion, error)
	Name() string
	Model() string
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
