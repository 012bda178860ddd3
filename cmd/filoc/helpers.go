package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"filoc/internal/config"
	"filoc/internal/embedding"
	"filoc/internal/errors"
	"filoc/internal/paths"
	"filoc/internal/ranking"
	"filoc/internal/repos"
	"filoc/internal/slogutil"
	"filoc/internal/storage"
	"filoc/internal/version"
)

// appState holds the process-wide collaborators shared by all commands.
type appState struct {
	cfg    *config.Config
	logger *slog.Logger
	logs   *slogutil.LoggerFactory

	dbOnce sync.Once
	db     *storage.DB
	dbErr  error

	cache    *storage.EmbeddingCache
	provider *embedding.Provider
}

var (
	appOnce sync.Once
	app     *appState
	appErr  error
)

// getApp returns the shared application state.
// It is lazily initialized on first use.
func getApp() (*appState, error) {
	appOnce.Do(func() {
		app, appErr = newApp()
	})
	return app, appErr
}

func newApp() (*appState, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}

	logs := slogutil.NewLoggerFactory(cfg, cliLevel(), logFormatFlag)
	logger, err := logs.Logger(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.Debug("Starting filoc", "version", version.Info())

	a := &appState{cfg: cfg, logger: logger, logs: logs}
	a.provider = embedding.NewProvider(a.buildEmbedder)
	return a, nil
}

// closeApp releases whatever the command opened.
func closeApp() {
	if app == nil {
		return
	}
	if err := app.provider.Close(); err != nil {
		app.logger.Warn("Failed to close embedder", "error", err.Error())
	}
	if app.cache != nil {
		_ = app.cache.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
	_ = app.logs.Close()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFile(configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(cwd)
}

// cliLevel resolves the log level flags; nil means none were given.
func cliLevel() *slog.Level {
	var level slog.Level
	switch {
	case logLevelFlag != "":
		level = slogutil.LevelFromString(logLevelFlag)
	case quiet || verbosity > 0:
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	default:
		return nil
	}
	return &level
}

// database opens the shared SQLite database on first use.
func (a *appState) database() (*storage.DB, error) {
	a.dbOnce.Do(func() {
		path := a.cfg.Cache.Path
		if path == "" {
			path = paths.DefaultCachePath()
		}
		a.db, a.dbErr = storage.Open(path, a.logger)
	})
	return a.db, a.dbErr
}

func (a *appState) buildEmbedder() (embedding.Embedder, error) {
	if a.cfg.Cache.Enabled {
		db, err := a.database()
		if err != nil {
			a.logger.Warn("Embedding cache unavailable, continuing without it", "error", err.Error())
		} else if cache, err := storage.NewEmbeddingCache(db); err != nil {
			a.logger.Warn("Embedding cache unavailable, continuing without it", "error", err.Error())
		} else {
			a.cache = cache
		}
	}

	start := time.Now()
	emb, err := embedding.New(a.cfg.Embedder, a.cache, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Embedder loaded",
		"model", emb.ModelID(),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return emb, nil
}

// ranker builds a ranker backed by the lazily loaded embedder.
func (a *appState) ranker() *ranking.Ranker {
	bm25 := a.cfg.Ranking.BM25
	return ranking.NewRanker(a.provider,
		ranking.WithBM25Params(ranking.BM25Params{K1: bm25.K1, B: bm25.B}),
		ranking.WithLogger(a.logger),
	)
}

func (a *appState) lister() (*repos.Lister, error) {
	l := a.cfg.Lister
	return repos.NewLister(repos.ListerConfig{
		Include:          l.Include,
		Exclude:          l.Exclude,
		MaxFileSizeBytes: l.MaxFileSizeBytes,
	}, a.logger)
}

func (a *appState) snapshotter() *repos.Snapshotter {
	w := a.cfg.Workspace
	return repos.NewSnapshotter(repos.SnapshotConfig{
		WorkspaceDir: w.Dir,
		CloneURL:     w.CloneURL,
		GitTimeout:   time.Duration(w.GitTimeoutSeconds) * time.Second,
		Clean:        w.Clean,
	}, a.logger)
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printError writes err with any suggested fixes.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var fe *errors.FilocError
	if !stderrors.As(err, &fe) {
		return
	}
	for _, fix := range fe.SuggestedFixes {
		if fix.Command != "" {
			fmt.Fprintf(w, "  Try: %s  # %s\n", fix.Command, fix.Description)
		} else if fix.Description != "" {
			fmt.Fprintf(w, "  Hint: %s\n", fix.Description)
		}
	}
}
