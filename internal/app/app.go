// Package app wires configuration into the generator, runner, reports and
// report server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"billdecoder/internal/config"
	"billdecoder/internal/document"
	"billdecoder/internal/llm"
	"billdecoder/internal/mcp"
	"billdecoder/internal/observability"
	"billdecoder/internal/policy"
	"billdecoder/internal/prompts"
	"billdecoder/internal/report"
	"billdecoder/internal/runner"
	"billdecoder/internal/server"
	"billdecoder/internal/synth"
)

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	LLM      llm.Provider
	Catalog  prompts.Catalog
	Policy   *policy.Policy
	Observer *observability.RunObserver
}

// New builds everything an evaluation run needs.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog, err := loadCatalog(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}
	var pol *policy.Policy
	if cfg.Policy.Enabled {
		p, err := policy.Load(cfg.Policy.Path)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		pol = &p
	}
	provider, err := llm.Select(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:   cfg,
		Logger:   logger,
		LLM:      provider,
		Catalog:  catalog,
		Policy:   pol,
		Observer: observability.NewRunObserver(logger, cfg.Run.AlertAfter),
	}, nil
}

func loadCatalog(path string) (prompts.Catalog, error) {
	if path == "" {
		return prompts.Default(), nil
	}
	return prompts.Load(path)
}

// Runner returns a runner configured from the run section.
func (a *App) Runner() (*runner.Runner, error) {
	types, err := documentTypes(a.Config.Run.DocumentTypes)
	if err != nil {
		return nil, err
	}
	return runner.New(a.LLM, a.Catalog, runner.Options{
		FilesPerType:      a.Config.Run.FilesPerType,
		RequestsPerSecond: a.Config.Run.RequestsPerSecond,
		DocumentTypes:     types,
		Temperature:       a.Config.LLM.Temperature,
		TopP:              a.Config.LLM.TopP,
		Policy:            a.Policy,
	}, a.Observer, a.Logger), nil
}

// Evaluate runs the matrix and writes every report. A cancelled run still
// writes reports for the results gathered so far and returns ctx.Err().
func (a *App) Evaluate(ctx context.Context) (report.Report, report.Files, error) {
	r, err := a.Runner()
	if err != nil {
		return report.Report{}, report.Files{}, err
	}
	session, runErr := r.Run(ctx, a.Config.Run.DataDir)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return report.Report{}, report.Files{}, runErr
	}
	rep := report.Build(session)
	files, err := report.WriteAll(a.Config.Run.ResultsDir, rep)
	if err != nil {
		return rep, files, err
	}
	a.Logger.Info("reports written",
		zap.String("session_id", rep.SessionID),
		zap.String("json", files.JSON),
		zap.String("presentation", files.Presentation))
	return rep, files, runErr
}

func documentTypes(raw []string) ([]document.Type, error) {
	var out []document.Type
	for _, name := range raw {
		t, err := document.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("run.document_types: %w: %q", err, name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Generate writes the synthetic suite described by the generate section. A
// zero seed picks one from the clock.
func Generate(cfg config.Config, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Generate.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	plan := synth.Plan{Bills: cfg.Generate.Bills, Labs: cfg.Generate.Labs, EOBs: cfg.Generate.EOBs, EdgeCases: true}
	paths, err := synth.New(seed).WriteSuite(cfg.Generate.OutDir, plan)
	if err != nil {
		return paths, err
	}
	logger.Info("test suite generated",
		zap.Int64("seed", seed),
		zap.String("dir", cfg.Generate.OutDir),
		zap.Int("files", len(paths)))
	return paths, nil
}

// Rerender rebuilds every report file from the newest JSON report in the
// results directory.
func Rerender(cfg config.Config) (report.Report, report.Files, error) {
	rep, err := report.LoadLatest(cfg.Run.ResultsDir)
	if err != nil {
		return rep, report.Files{}, err
	}
	files, err := report.WriteAll(cfg.Run.ResultsDir, rep)
	return rep, files, err
}

// NewMCP builds the MCP tool server over the configured catalog, policy and
// results directory. It needs no LLM provider.
func NewMCP(cfg config.Config, logger *zap.Logger) (*mcp.Server, error) {
	catalog, err := loadCatalog(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}
	var pol policy.Policy
	if cfg.Policy.Enabled {
		if pol, err = policy.Load(cfg.Policy.Path); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
	}
	return mcp.NewServer(mcp.Options{
		Catalog:         catalog,
		Policy:          pol,
		ResultsDir:      cfg.Run.ResultsDir,
		ProtocolVersion: cfg.MCP.ProtocolVersion,
		AllowOrigins:    cfg.MCP.AllowOrigins,
		Logger:          logger,
	}), nil
}

// Serve runs the report server, with the MCP endpoint when enabled, until
// ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var opts []server.Option
	if cfg.MCP.Enabled {
		m, err := NewMCP(cfg, logger)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithMCP(m.HandleHTTP))
	}
	return server.New(cfg.HTTP.Addr, cfg.Run.ResultsDir, logger, opts...).Serve(ctx)
}
