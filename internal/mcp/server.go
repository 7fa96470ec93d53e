// Package mcp exposes the scorer, answer policy, prompt catalog and latest
// report as Model Context Protocol tools over HTTP and stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"billdecoder/internal/document"
	"billdecoder/internal/policy"
	"billdecoder/internal/prompts"
	"billdecoder/internal/quality"
	"billdecoder/internal/report"
)

const (
	DefaultProtocolVersion = "2025-06-18"
	sessionTTL             = 24 * time.Hour
)

type Options struct {
	Catalog         prompts.Catalog
	Policy          policy.Policy
	ResultsDir      string
	ProtocolVersion string

	// AllowOrigins limits browser origins on HTTP. Empty allows any.
	AllowOrigins []string
	Logger       *zap.Logger
}

type Server struct {
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewServer(opts Options) *Server {
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = DefaultProtocolVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: logger, now: time.Now, sessions: make(map[string]time.Time)}
}

func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.validateOrigin(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	sessionID := r.Header.Get("MCP-Session-Id")
	if req.Method != "initialize" && !s.isSessionValid(sessionID) {
		writeError(w, req.ID, -32000, "missing or invalid MCP-Session-Id")
		return
	}
	result, err := s.dispatch(r.Context(), req)
	if err != nil {
		writeError(w, req.ID, -32000, err.Error())
		return
	}
	if req.Method == "initialize" {
		if sessionID == "" || !s.isSessionValid(sessionID) {
			sessionID = s.newSession()
		}
		w.Header().Set("MCP-Session-Id", sessionID)
	}
	w.Header().Set("MCP-Protocol-Version", s.opts.ProtocolVersion)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": s.opts.ProtocolVersion,
			"serverInfo": map[string]any{
				"name":    "billdecoder",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
		}, nil
	case "tools/list":
		return ListTools(), nil
	case "tools/call":
		return s.callTool(ctx, req)
	case "resources/list":
		return ListResources(), nil
	case "resources/read":
		return s.readResource(req)
	default:
		return nil, fmt.Errorf("unknown method: %s", req.Method)
	}
}

func (s *Server) callTool(ctx context.Context, req Request) (any, error) {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	exec, err := s.toolExecutor(params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	callID := uuid.NewString()
	result, err := exec(ctx)
	s.logger.Debug("tool call",
		zap.String("tool", params.Name),
		zap.String("call_id", callID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return nil, err
	}
	result["call_id"] = callID
	return result, nil
}

func (s *Server) toolExecutor(params ToolCallParams) (func(context.Context) (map[string]any, error), error) {
	switch params.Name {
	case "score_answer":
		var input struct {
			Text         string `json:"text"`
			DocumentType string `json:"document_type"`
		}
		if err := decodeParams(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(context.Context) (map[string]any, error) {
			t := document.TypeMedicalBill
			if input.DocumentType != "" {
				parsed, err := document.ParseType(input.DocumentType)
				if err != nil {
					return nil, fmt.Errorf("%w: %q", err, input.DocumentType)
				}
				t = parsed
			}
			metrics, scores := quality.Evaluate(input.Text, t)
			issues := quality.IssuesFound(input.Text)
			if issues == nil {
				issues = []string{}
			}
			return map[string]any{
				"document_type": t,
				"metrics":       metrics,
				"scores":        scores,
				"issues_found":  issues,
			}, nil
		}, nil
	case "check_policy":
		var input struct {
			Text string `json:"text"`
		}
		if err := decodeParams(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(context.Context) (map[string]any, error) {
			text, verdict := policy.Evaluate(input.Text, s.opts.Policy)
			return map[string]any{"text": text, "verdict": verdict}, nil
		}, nil
	case "list_prompts":
		var input struct {
			DocumentType string `json:"document_type"`
		}
		if len(params.Arguments) > 0 {
			if err := json.Unmarshal(params.Arguments, &input); err != nil {
				return nil, err
			}
		}
		return func(context.Context) (map[string]any, error) {
			if input.DocumentType == "" {
				return map[string]any{"prompts": s.opts.Catalog.Names()}, nil
			}
			t, err := document.ParseType(input.DocumentType)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, input.DocumentType)
			}
			return map[string]any{"document_type": t, "prompts": s.opts.Catalog.ForType(t)}, nil
		}, nil
	case "compose_prompt":
		var input struct {
			Prompt   string          `json:"prompt"`
			Document json.RawMessage `json:"document"`
		}
		if err := decodeParams(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(context.Context) (map[string]any, error) {
			prompt, err := s.opts.Catalog.Get(input.Prompt)
			if err != nil {
				return nil, err
			}
			doc, err := document.Parse(input.Document)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"document_type": doc.Type,
				"complexity":    doc.Complexity(),
				"message":       prompts.Compose(prompt, document.PromptText(doc)),
			}, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

func (s *Server) readResource(req Request) (any, error) {
	var params ResourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	switch {
	case params.URI == ResourcePrompts:
		return map[string]any{"prompts": s.opts.Catalog.Names(), "matrix": s.opts.Catalog.Matrix}, nil
	case strings.HasPrefix(params.URI, promptResourcePrefix):
		name := strings.TrimPrefix(params.URI, promptResourcePrefix)
		text, err := s.opts.Catalog.Get(name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"name": name, "text": text}, nil
	case params.URI == ResourceLatestReport:
		rep, err := report.LoadLatest(s.opts.ResultsDir)
		if err != nil {
			return nil, err
		}
		return rep, nil
	default:
		return nil, fmt.Errorf("resource not found: %s", params.URI)
	}
}

func (s *Server) validateOrigin(r *http.Request) error {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowOrigins) == 0 {
		return nil
	}
	for _, allowed := range s.opts.AllowOrigins {
		if origin == allowed {
			return nil
		}
	}
	return errors.New("origin not allowed")
}

func (s *Server) newSession() string {
	id := uuid.NewString()
	now := s.now()
	s.mu.Lock()
	for sid, expiry := range s.sessions {
		if !now.Before(expiry) {
			delete(s.sessions, sid)
		}
	}
	s.sessions[id] = now.Add(sessionTTL)
	s.mu.Unlock()
	return id
}

func (s *Server) isSessionValid(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[id]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(s.sessions, id)
		return false
	}
	return true
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return errors.New("missing params")
	}
	return json.Unmarshal(raw, out)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ResponseError{Code: code, Message: message},
	})
}
