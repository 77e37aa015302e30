package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonathan/comp-collector/internal/collector"
	"github.com/jonathan/comp-collector/internal/config"
	"github.com/jonathan/comp-collector/internal/fetch"
	"github.com/jonathan/comp-collector/internal/interpreter"
	"github.com/jonathan/comp-collector/internal/jobindex"
	"github.com/jonathan/comp-collector/internal/llm"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/mcp"
	"github.com/jonathan/comp-collector/internal/metrics"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/sources/compdb"
	"github.com/jonathan/comp-collector/internal/sources/jobboard"
	"github.com/jonathan/comp-collector/internal/sources/stats"
)

// app holds the dependencies shared by the subcommands.
type app struct {
	cfg     config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	index   *jobindex.Cache
	sources sources.Set
	llm     llm.Client
	closers []func()
}

// loadConfig resolves file, environment, and flag settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if headed {
		cfg.Headed = true
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logging.Logger {
	if verbose {
		return logging.NewDevelopment(cfg.LogLevel)
	}
	return logging.New(cfg.LogLevel)
}

// newApp wires the adapters. With local set, adapters always run in this
// process; otherwise SourcesMCPURL selects the remote seam when configured.
func newApp(ctx context.Context, local bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: cfg, log: newLogger(cfg), metrics: metrics.New()}

	if !local && cfg.SourcesMCPURL != "" {
		client, err := mcp.Dial(ctx, cfg.SourcesMCPURL, a.log)
		if err != nil {
			return nil, err
		}
		a.sources = client.Sources()
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.log.Info("using remote sources", "endpoint", cfg.SourcesMCPURL)
		return a, nil
	}

	a.index, err = newIndex(cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.sources, err = localSources(cfg, a.index, a.log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// close releases the LLM client, the remote session, and flushes logs.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	_ = a.log.Sync()
}

func newIndex(cfg config.Config, log *logging.Logger) (*jobindex.Cache, error) {
	limiter := fetch.NewHostLimiter(cfg.CrawlRatePerSec, 1)
	crawler, err := jobindex.NewCrawler(cfg.BLSBaseURL,
		jobindex.WithLimiter(limiter),
		jobindex.WithCrawlLogger(log.With("component", "jobindex")),
	)
	if err != nil {
		return nil, err
	}
	return jobindex.New(crawler,
		jobindex.WithTTL(cfg.IndexTTLDuration()),
		jobindex.WithLogger(log.With("component", "jobindex")),
	), nil
}

// localSources builds the in-process adapters. The compensation database is
// left unset without credentials and reports itself unhealthy.
func localSources(cfg config.Config, index *jobindex.Cache, log *logging.Logger) (sources.Set, error) {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Limiter = fetch.NewHostLimiter(cfg.CrawlRatePerSec, 1)

	set := sources.Set{
		Stats: stats.New(index, stats.Config{
			CostOfLivingBaseURL: cfg.CostOfLivingBaseURL,
			Fetch:               fetchOpts,
			PageCacheTTL:        time.Hour,
			Logger:              log,
		}),
	}

	if cfg.SalaryUsername != "" && cfg.SalaryPassword != "" {
		set.CompDB = compdb.New(compdb.NewChromeLauncher(!cfg.Headed), compdb.Config{
			Credentials: compdb.Credentials{
				LoginURL: cfg.SalaryLoginURL,
				Username: cfg.SalaryUsername,
				Password: cfg.SalaryPassword,
			},
			Retries:    2,
			RetryDelay: 2 * time.Second,
			Logger:     log,
		})
	} else {
		log.Warn("compensation database credentials not set; source disabled")
	}

	var solver jobboard.Solver
	if cfg.CaptchaAPIKey != "" {
		solver = &jobboard.TwoCaptcha{
			APIKey:    cfg.CaptchaAPIKey,
			SubmitURL: cfg.CaptchaSubmitURL,
			ResultURL: cfg.CaptchaResultURL,
		}
	}
	board, err := jobboard.New(jobboard.NewChromeLauncher(!cfg.Headed), jobboard.Config{
		BaseURL: cfg.JobBoardBaseURL,
		Solver:  solver,
		Logger:  log,
	})
	if err != nil {
		return sources.Set{}, err
	}
	set.JobBoard = board
	return set, nil
}

// newLLM returns nil without an API key; the interpreter then falls back to
// its heuristic extractor.
func newLLM(ctx context.Context, cfg config.Config, log *logging.Logger) (llm.Client, error) {
	if cfg.APIKey == "" {
		log.Warn("no LLM API key configured; using heuristic query interpretation", "provider", cfg.LLMProvider)
		return nil, nil
	}
	client, err := llm.NewClient(ctx, llm.ConfigFor(cfg.LLMProvider), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// workflow builds the interpreter, collector, and orchestrator.
func (a *app) workflow(ctx context.Context) (*pipeline.Workflow, error) {
	client, err := newLLM(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.llm = client

	interp := interpreter.New(client, interpreter.WithLogger(a.log.With("component", "interpreter")))
	coll := collector.New(a.sources,
		collector.WithLogger(a.log.With("component", "collector")),
		collector.WithMetrics(a.metrics),
	)
	return pipeline.New(interp, coll,
		pipeline.WithLogger(a.log.With("component", "workflow")),
		pipeline.WithMetrics(a.metrics),
	), nil
}

// warmIndex refreshes the job index in the background so the first search
// does not pay for the crawl.
func (a *app) warmIndex(ctx context.Context) {
	if a.index == nil {
		return
	}
	go func() {
		if err := a.index.Refresh(ctx); err != nil {
			a.log.Warn("job index warm-up failed", "error", err)
			return
		}
		a.metrics.SetJobIndexSize(a.index.Status().Size)
	}()
}

func parsePort(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	return port, nil
}
