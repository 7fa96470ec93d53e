// Package runner evaluates every prompt of the catalog matrix against a
// directory of test documents, one request at a time.
package runner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"billdecoder/internal/document"
	"billdecoder/internal/llm"
	"billdecoder/internal/observability"
	"billdecoder/internal/policy"
	"billdecoder/internal/prompts"
	"billdecoder/internal/quality"
)

type Result struct {
	TestID       string              `json:"test_id"`
	SessionID    string              `json:"session_id"`
	PromptType   string              `json:"prompt_type"`
	DocumentType document.Type       `json:"document_type"`
	DocumentFile string              `json:"document_file"`
	Complexity   document.Complexity `json:"complexity"`
	Timestamp    time.Time           `json:"timestamp"`
	ResponseTime float64             `json:"response_time"`
	Success      bool                `json:"success"`
	ErrorMessage string              `json:"error_message,omitempty"`
	ResponseText string              `json:"response_text,omitempty"`
	Metrics      *quality.MetricSet  `json:"metrics,omitempty"`
	Scores       *quality.Scores     `json:"scores,omitempty"`
	IssuesFound  []string            `json:"issues_found"`
	Policy       *policy.Result      `json:"policy,omitempty"`
	Usage        llm.Usage           `json:"usage"`
}

type Session struct {
	ID         string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Results    []Result  `json:"results"`
}

type Options struct {
	FilesPerType      int
	RequestsPerSecond float64
	DocumentTypes     []document.Type
	Temperature       float64
	TopP              float64

	// Policy, when set, is applied to every answer before it is stored.
	// Scores are always computed on the unmodified answer.
	Policy *policy.Policy
}

type Runner struct {
	provider llm.Provider
	catalog  prompts.Catalog
	opts     Options
	limiter  *rate.Limiter
	observer *observability.RunObserver
	logger   *zap.Logger
	now      func() time.Time
}

func New(provider llm.Provider, catalog prompts.Catalog, opts Options, observer *observability.RunObserver, logger *zap.Logger) *Runner {
	if opts.FilesPerType < 1 {
		opts.FilesPerType = 3
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if len(opts.DocumentTypes) == 0 {
		opts.DocumentTypes = document.Types()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		provider: provider,
		catalog:  catalog,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Run evaluates the matrix over the documents found in dir. When ctx is
// cancelled it stops and returns the results gathered so far with ctx.Err().
func (r *Runner) Run(ctx context.Context, dir string) (Session, error) {
	session := Session{
		ID:        uuid.NewString(),
		StartedAt: r.now(),
		Provider:  r.provider.Name(),
		Model:     r.provider.Model(),
	}
	files, err := Discover(dir, r.opts.FilesPerType)
	if err != nil {
		return session, err
	}
	r.logger.Info("run started",
		zap.String("session_id", session.ID),
		zap.String("provider", session.Provider),
		zap.String("data_dir", dir))

	for _, t := range r.opts.DocumentTypes {
		names := r.catalog.ForType(t)
		for _, path := range files[t] {
			doc, loadErr := document.Load(path)
			for _, name := range names {
				var res Result
				if loadErr != nil {
					res = r.failed(name, t, path, loadErr)
				} else {
					if err := r.limiter.Wait(ctx); err != nil {
						session.FinishedAt = r.now()
						return session, err
					}
					res = r.RunCase(ctx, name, doc, path)
				}
				res.SessionID = session.ID
				session.Results = append(session.Results, res)
				if ctx.Err() != nil {
					session.FinishedAt = r.now()
					return session, ctx.Err()
				}
			}
		}
	}
	session.FinishedAt = r.now()
	snap := r.observer.Snapshot()
	r.logger.Info("run finished",
		zap.String("session_id", session.ID),
		zap.Int("results", len(session.Results)),
		zap.Int64("succeeded", snap.Succeeded),
		zap.Int64("failed", snap.Failed))
	return session, nil
}

// RunCase sends one prompt with one document and scores the answer.
// Provider failures are recorded on the result, never returned.
func (r *Runner) RunCase(ctx context.Context, promptName string, doc document.Document, path string) Result {
	res := Result{
		TestID:       r.testID(promptName, doc.Type),
		PromptType:   promptName,
		DocumentType: doc.Type,
		DocumentFile: path,
		Complexity:   doc.Complexity(),
		Timestamp:    r.now(),
		IssuesFound:  []string{},
	}
	prompt, err := r.catalog.Get(promptName)
	if err != nil {
		return r.fail(res, err)
	}
	req := llm.UserMessage(prompts.Compose(prompt, document.PromptText(doc)))
	req.Temperature, req.TopP = r.opts.Temperature, r.opts.TopP

	start := time.Now()
	completion, err := r.provider.Chat(ctx, req)
	elapsed := completion.Latency
	if elapsed == 0 {
		elapsed = time.Since(start)
	}
	res.ResponseTime = elapsed.Seconds()
	if err != nil {
		return r.fail(res, err)
	}

	metrics, scores := quality.Evaluate(completion.Text, doc.Type)
	res.Success = true
	res.ResponseText = completion.Text
	res.Metrics = &metrics
	res.Scores = &scores
	res.Usage = completion.Usage
	if issues := quality.IssuesFound(completion.Text); issues != nil {
		res.IssuesFound = issues
	}
	if r.opts.Policy != nil {
		text, verdict := policy.Evaluate(completion.Text, *r.opts.Policy)
		res.ResponseText = text
		res.Policy = &verdict
		if !verdict.Allowed {
			r.logger.Warn("answer violates policy",
				zap.String("test_id", res.TestID),
				zap.String("reason", verdict.Reason))
		}
	}
	r.observer.RecordSuccess(res.TestID, elapsed, scores.Accuracy)
	return res
}

func (r *Runner) failed(promptName string, t document.Type, path string, err error) Result {
	res := Result{
		TestID:       r.testID(promptName, t),
		PromptType:   promptName,
		DocumentType: t,
		DocumentFile: path,
		Complexity:   document.ComplexitySimple,
		Timestamp:    r.now(),
		IssuesFound:  []string{},
	}
	return r.fail(res, err)
}

func (r *Runner) fail(res Result, err error) Result {
	res.Success = false
	res.ErrorMessage = err.Error()
	r.observer.RecordFailure(res.TestID, res.ErrorMessage)
	return res
}

func (r *Runner) testID(promptName string, t document.Type) string {
	return fmt.Sprintf("%s_%s_%d_%s", promptName, t, r.now().Unix(), uuid.NewString()[:8])
}

var typeDirs = map[string]document.Type{
	"bills":       document.TypeMedicalBill,
	"lab-results": document.TypeLabResults,
	"eob":         document.TypeEOB,
}

// Discover walks dir for *.json documents and classifies them by the first
// path segment naming a document directory (bills, lab-results, eob). Each
// list is sorted and capped at limit entries.
func Discover(dir string, limit int) (map[document.Type][]string, error) {
	out := make(map[document.Type][]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
			if t, ok := typeDirs[seg]; ok {
				out[t] = append(out[t], path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	for t, paths := range out {
		sort.Strings(paths)
		if limit > 0 && len(paths) > limit {
			paths = paths[:limit]
		}
		out[t] = paths
	}
	return out, nil
}
