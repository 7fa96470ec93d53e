package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultHathrTimeout     = 60 * time.Second
	defaultTokenEarlyExpiry = time.Hour
	// Lifetime assumed when the token endpoint omits expires_in.
	defaultTokenLifetime = 24 * time.Hour
	errorBodyLimit       = 512
)

// HathrOptions configures the Hathr chat client. Credentials and endpoints
// have no defaults.
type HathrOptions struct {
	ClientID         string
	ClientSecret     string
	Scope            string
	TokenURL         string
	APIURL           string
	Model            string
	Temperature      float64
	TopP             float64
	Timeout          time.Duration
	TokenEarlyExpiry time.Duration
}

// Hathr talks to the Hathr chat endpoint with an OAuth2 client-credentials
// bearer token. The token is cached and refreshed TokenEarlyExpiry before it
// expires.
type Hathr struct {
	opts   HathrOptions
	Client *http.Client
}

func NewHathr(opts HathrOptions) (*Hathr, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" || opts.TokenURL == "" || opts.APIURL == "" {
		return nil, fmt.Errorf("hathr: %w: client id, client secret, token url and api url are required", ErrNotConfigured)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHathrTimeout
	}
	if opts.TokenEarlyExpiry <= 0 {
		opts.TokenEarlyExpiry = defaultTokenEarlyExpiry
	}
	if opts.Model == "" {
		opts.Model = "hathr"
	}

	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if opts.Scope != "" {
		cc.Scopes = []string{opts.Scope}
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
	src := oauth2.ReuseTokenSourceWithExpiry(nil, &tokenSource{ctx: tokenCtx, cfg: cc}, opts.TokenEarlyExpiry)

	return &Hathr{
		opts: opts,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
	}, nil
}

type tokenSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("hathr token: %w", err)
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(defaultTokenLifetime)
	}
	return tok, nil
}

func (h *Hathr) Name() string  { return "hathr" }
func (h *Hathr) Model() string { return h.opts.Model }

type hathrRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"topP"`
}

type hathrResponse struct {
	Response *struct {
		Text  *string `json:"text"`
		Usage struct {
			InputTokens  int `json:"inputTokens"`
			OutputTokens int `json:"outputTokens"`
			TotalTokens  int `json:"totalTokens"`
		} `json:"usage"`
	} `json:"response"`
	Data *struct {
		Message *string `json:"message"`
	} `json:"data"`
}

var ErrUnexpectedResponse = errors.New("unexpected response structure")

func (h *Hathr) Chat(ctx context.Context, req Request) (Completion, error) {
	payload := hathrRequest{
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if payload.Temperature == 0 {
		payload.Temperature = h.opts.Temperature
	}
	if payload.TopP == 0 {
		payload.TopP = h.opts.TopP
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.opts.APIURL, bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.Client.Do(httpReq)
	if err != nil {
		return Completion{Latency: time.Since(start)}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		return Completion{Latency: latency}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Completion{Latency: latency}, fmt.Errorf("api error: %d - %s", resp.StatusCode, truncate(string(raw), errorBodyLimit))
	}

	var decoded hathrResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Completion{Latency: latency}, fmt.Errorf("decode response: %w", err)
	}
	switch {
	case decoded.Response != nil && decoded.Response.Text != nil:
		u := decoded.Response.Usage
		return Completion{
			Text:    *decoded.Response.Text,
			Usage:   Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens, TotalTokens: u.TotalTokens},
			Latency: latency,
		}, nil
	case decoded.Data != nil && decoded.Data.Message != nil:
		return Completion{Text: *decoded.Data.Message, Latency: latency}, nil
	default:
		return Completion{Latency: latency}, ErrUnexpectedResponse
	}
}
