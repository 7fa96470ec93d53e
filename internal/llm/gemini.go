package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	TopP        float64
}

// Gemini sends chats to the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	opts   GeminiOptions
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: api key is required", ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.opts.Model }

func (g *Gemini) Chat(ctx context.Context, req Request) (Completion, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	temperature, topP := req.Temperature, req.TopP
	if temperature == 0 {
		temperature = g.opts.Temperature
	}
	if topP == 0 {
		topP = g.opts.TopP
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))}
	if topP > 0 {
		cfg.TopP = genai.Ptr(float32(topP))
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, cfg)
	latency := time.Since(start)
	if err != nil {
		return Completion{Latency: latency}, err
	}
	text := resp.Text()
	if text == "" {
		return Completion{Latency: latency}, ErrUnexpectedResponse
	}
	out := Completion{Text: text, Latency: latency}
	if md := resp.UsageMetadata; md != nil {
		out.Usage = Usage{
			InputTokens:  int(md.PromptTokenCount),
			OutputTokens: int(md.CandidatesTokenCount),
			TotalTokens:  int(md.TotalTokenCount),
		}
	}
	return out, nil
}
