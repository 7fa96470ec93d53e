package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billdecoder/internal/config"
)

func TestGeminiChat(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Plain English summary."}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3, "totalTokenCount": 10}
		}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{APIKey: "key", Model: "gemini-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	res, err := g.Chat(context.Background(), UserMessage("explain"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Text != "Plain English summary." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Usage != (Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}) {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}
	if !strings.Contains(path, "gemini-test:generateContent") {
		t.Fatalf("unexpected request path %s", path)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiOptions{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	cfg := config.Default()
	p, err := Select(context.Background(), cfg)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if p.Name() != "noop" {
		t.Fatalf("expected noop by default, got %s", p.Name())
	}

	cfg.LLM.Provider = "hathr"
	if _, err := Select(context.Background(), cfg); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for hathr without credentials, got %v", err)
	}

	cfg.LLM.Provider = "mystery"
	if _, err := Select(context.Background(), cfg); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for unknown provider, got %v", err)
	}
}
