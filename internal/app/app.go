package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Kakaur/tensr-signal-agent/internal/api"
	"github.com/Kakaur/tensr-signal-agent/internal/config"
	"github.com/Kakaur/tensr-signal-agent/internal/discovery"
	"github.com/Kakaur/tensr-signal-agent/internal/metrics"
	"github.com/Kakaur/tensr-signal-agent/internal/pipeline"
	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) profileStore() *profile.Store {
	return profile.NewStore(a.Config.Pipeline.ProfilesDir, a.Logger)
}

func (a *App) newRunner(store *storage.Store, reportPath string) *pipeline.Runner {
	source := discovery.NewFileSource(reportPath, a.Config.Pipeline.ReportsDir, a.Logger)

	var locker storage.AdvisoryLocker
	var runStore storage.RunStore
	if store != nil {
		locker = store
		runStore = store
	}
	gate := pipeline.NewGate(locker, a.Config.Pipeline.AdvisoryLockKey)

	return pipeline.NewRunner(source, runStore, gate, a.Logger)
}

// Serve runs the HTTP API until interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; the API requires persistence")
	}
	defer closeStore()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	runner := a.newRunner(store, "")
	server := api.NewServer(runner, store, store, a.profileStore(), a.Config.Server.RequestTimeout, a.Logger)

	return server.Start(ctx, a.Config.Server.Addr)
}

// RunOptions configure a CLI-initiated pipeline run.
type RunOptions struct {
	ProfilePaths   []string
	RunAllProfiles bool
	ReportPath     string
}

// RunPipeline executes one pipeline run per requested profile and
// prints progress to stdout.
func (a *App) RunPipeline(ctx context.Context, opts RunOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; cannot persist a run")
	}
	defer closeStore()

	refs, err := a.resolveProfiles(opts)
	if err != nil {
		return err
	}

	runner := a.newRunner(store, opts.ReportPath)
	results, err := runner.RunProfiles(ctx, refs, func(message string) {
		fmt.Fprintln(os.Stdout, message)
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Fprintf(os.Stdout, "run %s: %d signals", res.RunID, res.SignalCount)
		if res.Warning != "" {
			fmt.Fprintf(os.Stdout, " (warning: %s)", res.Warning)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

func (a *App) resolveProfiles(opts RunOptions) ([]pipeline.ProfileRef, error) {
	profiles := a.profileStore()

	var paths []string
	switch {
	case opts.RunAllProfiles:
		saved, err := profiles.Paths()
		if err != nil {
			return nil, err
		}
		if len(saved) == 0 {
			return nil, errors.New("no saved profiles found")
		}
		paths = saved
	case len(opts.ProfilePaths) > 0:
		paths = opts.ProfilePaths
	default:
		return []pipeline.ProfileRef{{Path: "default", Profile: profile.Default()}}, nil
	}

	refs := make([]pipeline.ProfileRef, 0, len(paths))
	for _, path := range paths {
		p, err := profiles.Load(path)
		if err != nil {
			return nil, err
		}
		refs = append(refs, pipeline.ProfileRef{Path: path, Profile: p})
	}
	return refs, nil
}
