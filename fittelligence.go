// Package fittelligence provides a high-level façade that wires the
// configured model provider, stores, persona team and pipeline into one App.
// Most applications interact with this package by:
//  1. Loading a config.Config
//  2. Creating an App via New() (optionally overriding the model or stores)
//  3. Running a program (RunProgram), asking one persona (Ask) or serving
//     the HTTP API (Server)
package fittelligence

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/fittelligence/artifact"
	"github.com/hupe1980/fittelligence/artifact/sqlite"
	"github.com/hupe1980/fittelligence/coach"
	"github.com/hupe1980/fittelligence/config"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/memory"
	"github.com/hupe1980/fittelligence/metrics"
	"github.com/hupe1980/fittelligence/model"
	"github.com/hupe1980/fittelligence/model/provider"
	"github.com/hupe1980/fittelligence/server"
	"github.com/hupe1980/fittelligence/session"
	"github.com/hupe1980/fittelligence/tool"
)

// Options configures the App.
type Options struct {
	// Model overrides the provider built from the config.
	Model model.Model

	// Out receives the pipeline transcript (defaults to os.Stdout).
	Out io.Writer

	// Stores (defaults to in-memory sessions and memory; artifacts go to the
	// sqlite archive when the config names one)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// App aggregates the persona team, the pipeline and their infrastructure.
type App struct {
	cfg      *config.Config
	model    model.Model
	metrics  *metrics.Recorder
	team     *coach.Team
	pipeline *coach.Pipeline
	logger   logging.Logger
	closers  []func() error
}

// New creates an App from cfg.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		Out:    os.Stdout,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	app := &App{
		cfg:     cfg,
		metrics: metrics.NewRecorder(),
		logger:  opts.Logger,
	}

	app.model = opts.Model
	if app.model == nil {
		m, err := provider.New(ctx, cfg.Model, app.metrics.Middleware())
		if err != nil {
			return nil, fmt.Errorf("create model: %w", err)
		}
		app.model = m
	} else {
		app.model = model.Chain(app.model, app.metrics.Middleware())
	}

	if opts.ArtifactStore == nil {
		if cfg.Archive.Path != "" {
			archive, err := sqlite.Open(cfg.Archive.Path)
			if err != nil {
				return nil, err
			}
			app.closers = append(app.closers, archive.Close)
			opts.ArtifactStore = archive
		} else {
			opts.ArtifactStore = artifact.NewInMemoryStore()
		}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.MemoryStore == nil {
		opts.MemoryStore = memory.NewInMemoryStore()
	}

	search := tool.NewWebSearch(func(o *tool.WebSearchOptions) {
		o.Endpoint = cfg.Search.Endpoint
		o.Timeout = cfg.Search.Timeout
		o.FetchTopResult = cfg.Search.FetchTopResult
	})

	app.team = coach.NewTeam(app.model, func(o *coach.TeamOptions) {
		o.Search = search
		o.MaxHistoryMessages = cfg.Runner.MaxHistoryMessages
		o.MaxHistoryTokens = cfg.Runner.MaxHistoryTokens
		o.Logger = opts.Logger
	})

	app.pipeline = coach.NewPipeline(app.team, func(o *coach.PipelineOptions) {
		o.Out = opts.Out
		o.Stores = core.Stores{
			Sessions:  opts.SessionStore,
			Artifacts: opts.ArtifactStore,
			Memory:    opts.MemoryStore,
		}
		o.Metrics = app.metrics
		o.MaxModelCalls = cfg.Runner.MaxModelCalls
		o.Logger = opts.Logger
	})

	opts.Logger.Debug("app.ready",
		"model", app.model.Info().Name,
		"provider", app.model.Info().Provider,
		"archive", cfg.Archive.Path,
	)

	return app, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Team returns the persona agents.
func (a *App) Team() *coach.Team { return a.team }

// Pipeline returns the sequential program pipeline.
func (a *App) Pipeline() *coach.Pipeline { return a.pipeline }

// Metrics returns the Prometheus recorder.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// RunProgram runs all five personas for profile.
func (a *App) RunProgram(ctx context.Context, profile coach.ClientProfile) (*coach.Program, error) {
	return a.pipeline.Run(ctx, profile)
}

// Ask sends one message to a single persona.
func (a *App) Ask(ctx context.Context, agentName, userID, sessionID, message string) (string, error) {
	return a.pipeline.Ask(ctx, agentName, userID, sessionID, message)
}

// Server returns the HTTP API for the App.
func (a *App) Server() *server.Server {
	return server.New(a.pipeline, func(o *server.Options) {
		o.Metrics = a.metrics
		o.Logger = a.logger
	})
}

// Close releases the artifact archive.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
