package llm

import (
	"context"
	"fmt"

	"billdecoder/internal/config"
)

// Select builds the provider named by cfg.LLM.Provider.
func Select(ctx context.Context, cfg config.Config) (Provider, error) {
	switch cfg.LLM.Provider {
	case "hathr":
		h, err := NewHathr(HathrOptions{
			ClientID:         cfg.Hathr.ClientID,
			ClientSecret:     cfg.Hathr.ClientSecret,
			Scope:            cfg.Hathr.Scope,
			TokenURL:         cfg.Hathr.TokenURL,
			APIURL:           cfg.Hathr.APIURL,
			Model:            cfg.LLM.Model,
			Temperature:      cfg.LLM.Temperature,
			TopP:             cfg.LLM.TopP,
			Timeout:          cfg.Hathr.Timeout,
			TokenEarlyExpiry: cfg.Hathr.TokenEarlyExpiry,
		})
		if err != nil {
			return nil, err
		}
		return h, nil
	case "gemini":
		model := cfg.Gemini.Model
		if model == "" {
			model = cfg.LLM.Model
		}
		g, err := NewGemini(ctx, GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			Model:       model,
			BaseURL:     cfg.Gemini.BaseURL,
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "noop", "":
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.LLM.Provider)
	}
}
