package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

type hathrFixture struct {
	tokenCalls atomic.Int32
	expiresIn  int
	chatStatus int
	chatBody   string
	lastBody   atomic.Value
	tokenSrv   *httptest.Server
	chatSrv    *httptest.Server
}

func newHathrFixture(t *testing.T) *hathrFixture {
	t.Helper()
	f := &hathrFixture{expiresIn: 86400, chatStatus: http.StatusOK}
	f.tokenSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "client" || r.Form.Get("client_secret") != "secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		n := f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, f.expiresIn)
	}))
	f.chatSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastBody.Store(body)
		w.WriteHeader(f.chatStatus)
		_, _ = w.Write([]byte(f.chatBody))
	}))
	t.Cleanup(f.tokenSrv.Close)
	t.Cleanup(f.chatSrv.Close)
	return f
}

func (f *hathrFixture) provider(t *testing.T) *Hathr {
	t.Helper()
	h, err := NewHathr(HathrOptions{
		ClientID:     "client",
		ClientSecret: "secret",
		Scope:        "hathr/llm",
		TokenURL:     f.tokenSrv.URL,
		APIURL:       f.chatSrv.URL,
		Temperature:  0.2,
		TopP:         1.0,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new hathr: %v", err)
	}
	return h
}

func TestHathrResponseShape(t *testing.T) {
	f := newHathrFixture(t)
	f.chatBody = `{"response":{"text":"All good ✅","usage":{"inputTokens":12,"outputTokens":4,"totalTokens":16}}}`
	h := f.provider(t)

	res, err := h.Chat(context.Background(), UserMessage("hello"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Text != "All good ✅" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if diff := cmp.Diff(Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}, res.Usage); diff != "" {
		t.Fatalf("usage mismatch:\n%s", diff)
	}
	body := f.lastBody.Load().(map[string]any)
	if body["temperature"] != 0.2 || body["topP"] != 1.0 {
		t.Fatalf("expected sampling parameters in body, got %v", body)
	}
	msgs := body["messages"].([]any)
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["text"] != "hello" {
		t.Fatalf("unexpected message payload: %v", first)
	}
}

func TestHathrDataShape(t *testing.T) {
	f := newHathrFixture(t)
	f.chatBody = `{"data":{"message":"legacy answer"}}`
	res, err := f.provider(t).Chat(context.Background(), UserMessage("hello"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Text != "legacy answer" || res.Usage != (Usage{}) {
		t.Fatalf("unexpected completion %+v", res)
	}
}

func TestHathrUnexpectedShape(t *testing.T) {
	f := newHathrFixture(t)
	f.chatBody = `{"choices":[]}`
	_, err := f.provider(t).Chat(context.Background(), UserMessage("hello"))
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestHathrErrorStatus(t *testing.T) {
	f := newHathrFixture(t)
	f.chatStatus = http.StatusTooManyRequests
	f.chatBody = "slow down"
	_, err := f.provider(t).Chat(context.Background(), UserMessage("hello"))
	if err == nil || !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}

func TestHathrReusesToken(t *testing.T) {
	f := newHathrFixture(t)
	f.chatBody = `{"response":{"text":"ok"}}`
	h := f.provider(t)
	for i := 0; i < 3; i++ {
		if _, err := h.Chat(context.Background(), UserMessage("hello")); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	if got := f.tokenCalls.Load(); got != 1 {
		t.Fatalf("expected one token exchange, got %d", got)
	}
}

func TestHathrRefreshesWithinEarlyExpiry(t *testing.T) {
	f := newHathrFixture(t)
	f.expiresIn = 1800
	f.chatBody = `{"response":{"text":"ok"}}`
	h := f.provider(t)
	for i := 0; i < 2; i++ {
		if _, err := h.Chat(context.Background(), UserMessage("hello")); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	if got := f.tokenCalls.Load(); got != 2 {
		t.Fatalf("expected a token exchange per call inside the early expiry window, got %d", got)
	}
}

func TestHathrTokenFailure(t *testing.T) {
	f := newHathrFixture(t)
	h, err := NewHathr(HathrOptions{
		ClientID:     "client",
		ClientSecret: "wrong",
		TokenURL:     f.tokenSrv.URL,
		APIURL:       f.chatSrv.URL,
	})
	if err != nil {
		t.Fatalf("new hathr: %v", err)
	}
	_, err = h.Chat(context.Background(), UserMessage("hello"))
	if err == nil || !strings.Contains(err.Error(), "hathr token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNewHathrRequiresConfig(t *testing.T) {
	_, err := NewHathr(HathrOptions{ClientID: "client"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	got := truncate("ab❌cd", 3)
	if got != "ab..." {
		t.Fatalf("expected cut before the multi-byte rune, got %q", got)
	}
	if !utf8.ValidString(truncate(strings.Repeat("é", 10), 5)) {
		t.Fatalf("expected valid utf-8 after truncation")
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short text unchanged, got %q", got)
	}
}
