package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/internal/config"
	boltInfra "github.com/fastygo/tasklist/internal/infrastructure/boltdb"
	"github.com/fastygo/tasklist/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/tasklist/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tasklist/internal/infrastructure/redis"
	"github.com/fastygo/tasklist/internal/infrastructure/seed"
	"github.com/fastygo/tasklist/internal/metrics"
	"github.com/fastygo/tasklist/internal/services"
	"github.com/fastygo/tasklist/internal/services/lifecycle"
	"github.com/fastygo/tasklist/pkg/logger"
	"github.com/fastygo/tasklist/repository"
	boltRepo "github.com/fastygo/tasklist/repository/bolt"
	pgRepo "github.com/fastygo/tasklist/repository/postgres"
	redisRepo "github.com/fastygo/tasklist/repository/redis"
	"github.com/fastygo/tasklist/usecase"
	taskUC "github.com/fastygo/tasklist/usecase/task"
)

// app holds one session's wiring: a single task repository backed by the
// configured snapshot store.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *lifecycle.Manager

	syncer  *services.SnapshotSyncer
	monitor *monitor.Monitor
	hub     *services.EventHub
	metrics *metrics.Metrics
	tasks   *taskUC.UseCase
	seed    usecase.SeedSource
}

type appOptions struct {
	// stdoutLogs replaces a stdout log sink, so command output or the
	// terminal UI stays readable. Empty keeps stdout.
	stdoutLogs string
	// background starts the retry scheduler and the store monitor.
	background bool
}

type pendingFunc func() bool

func (f pendingFunc) Pending() bool { return f() }

// loadApp reads configuration and builds the logger. Nothing is opened yet.
func loadApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if noSeed, _ := cmd.Flags().GetBool("no-seed"); noSeed {
		cfg.Seed.Enabled = false
	}

	output := cfg.Logger.Output
	if (output == "" || output == "stdout") && opts.stdoutLogs != "" {
		output = opts.stdoutLogs
	}
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  zapLogger,
		manager: lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger),
	}, nil
}

// wire opens the snapshot store and builds the repository. Extra presenters
// receive notifications alongside the event hub and metrics.
func (a *app) wire(ctx context.Context, opts appOptions, extra ...usecase.Presenter) error {
	blobs, err := a.openBlobStore(ctx)
	if err != nil {
		_ = a.shutdown()
		return err
	}
	snapshots := repository.NewSnapshots(blobs, a.cfg.Store.SnapshotKey, a.logger)

	var syncer *services.SnapshotSyncer
	a.monitor = monitor.New(snapshots, a.cfg.Store.Backend,
		pendingFunc(func() bool { return syncer.Pending() }),
		a.cfg.Store.SyncInterval, a.logger)
	syncer = services.NewSnapshotSyncer(snapshots, a.monitor, a.logger, services.SyncerConfig{
		Interval: a.cfg.Store.SyncInterval,
	})
	a.syncer = syncer
	a.manager.Register("snapshot_syncer", syncer.Stop)

	a.hub = services.NewEventHub(16, a.logger)
	a.metrics = metrics.New()

	presenters := usecase.Presenters{a.hub, a.metrics}
	presenters = append(presenters, extra...)
	a.tasks = taskUC.New(syncer, presenters, a.logger,
		taskUC.WithPersistTimeout(a.cfg.Context.RequestTimeout))
	a.metrics.Observe(a.tasks, syncer.Pending)
	a.manager.Register("tasks", func(context.Context) error {
		a.tasks.Close()
		return nil
	})

	if opts.background {
		syncer.Start()
		a.monitor.Start()
		a.manager.Register("monitor", func(context.Context) error {
			a.monitor.Stop()
			return nil
		})
	}

	a.seed = a.seedSource()
	a.logger.Info("task list ready",
		zap.String("backend", a.cfg.Store.Backend),
		zap.String("snapshot_key", a.cfg.Store.SnapshotKey),
		zap.Bool("seed", a.seed != nil))
	return nil
}

func (a *app) openBlobStore(ctx context.Context) (repository.BlobStore, error) {
	switch a.cfg.Store.Backend {
	case config.BackendRedis:
		client, err := redisInfra.NewClient(ctx, a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		a.manager.Register("redis", func(context.Context) error {
			return client.Close()
		})
		return redisRepo.NewBlobRepository(client), nil

	case config.BackendPostgres:
		if err := pgInfra.RunMigrations(a.cfg, a.logger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		a.manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, a.logger)
			return nil
		})
		return pgRepo.NewBlobRepository(pool), nil

	default:
		db, err := boltInfra.Open(a.cfg.Bolt.Path, a.cfg.Bolt.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot file: %w", err)
		}
		a.manager.Register("boltdb", func(context.Context) error {
			return db.Close()
		})
		return boltRepo.NewBlobRepository(db, a.cfg.Bolt.Bucket), nil
	}
}

func (a *app) seedSource() usecase.SeedSource {
	cfg := a.cfg.Seed
	if !cfg.Enabled {
		return nil
	}
	if cfg.File != "" {
		return seed.NewFileSource(cfg.File, cfg.Limit)
	}
	client := &fasthttp.Client{
		Name:         a.cfg.AppName,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	return seed.NewHTTPSource(client, cfg.URL, cfg.Limit, cfg.Timeout, a.logger)
}

// shutdown releases everything registered so far, flushing a pending
// snapshot before its store is closed.
func (a *app) shutdown() error {
	err := a.manager.Shutdown(context.Background())
	if err != nil {
		a.logger.Error("graceful shutdown error", zap.Error(err))
	}
	_ = a.logger.Sync()
	return err
}
