package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"billdecoder/internal/report"
)

func TestMain(m *testing.M) {
	// The genai dependency starts an opencensus stats worker in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func resultsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, report.PresentationFile), []byte("<html>presentation</html>"), 0o644); err != nil {
		t.Fatalf("write presentation: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report_s-1.json"), []byte(`{"session_id":"s-1"}`), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	return dir
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRootServesPresentation(t *testing.T) {
	h := New(":0", resultsDir(t), zap.NewNop()).Handler()
	rec := get(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "presentation") {
		t.Fatalf("expected presentation, got %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Fatalf("unexpected CORS methods %q", got)
	}
}

func TestStaticResults(t *testing.T) {
	h := New(":0", resultsDir(t), nil).Handler()
	rec := get(t, h, http.MethodGet, "/report_s-1.json")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"s-1"`) {
		t.Fatalf("expected report file, got %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, h, http.MethodGet, "/missing.json"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPreflight(t *testing.T) {
	h := New(":0", resultsDir(t), nil).Handler()
	rec := get(t, h, http.MethodOptions, "/report_s-1.json")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("expected CORS headers on preflight")
	}
}

func TestMissingPresentation(t *testing.T) {
	h := New(":0", t.TempDir(), nil).Handler()
	if rec := get(t, h, http.MethodGet, "/"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a presentation, got %d", rec.Code)
	}
}

func TestMCPMount(t *testing.T) {
	called := false
	h := New(":0", resultsDir(t), nil, WithMCP(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).Handler()
	if rec := get(t, h, http.MethodPost, "/mcp"); rec.Code != http.StatusOK || !called {
		t.Fatalf("expected the MCP handler, got %d", rec.Code)
	}
	if rec := get(t, New(":0", resultsDir(t), nil).Handler(), http.MethodPost, "/mcp"); rec.Code == http.StatusOK {
		t.Fatalf("expected no MCP endpoint without the option")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(ln.Addr().String(), resultsDir(t), zap.NewNop())
	errc := make(chan error, 1)
	go func() { errc <- srv.ServeListener(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	client.CloseIdleConnections()
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
