package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// SyncerConfig controls how frequently a failed snapshot write is retried.
type SyncerConfig struct {
	Interval time.Duration
}

// SnapshotSyncer sits between the task repository and the snapshot store.
// A write that fails is kept as pending and retried on a cron schedule
// until it lands or a newer write supersedes it.
type SnapshotSyncer struct {
	store   usecase.SnapshotStore
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     SyncerConfig

	// mu is held across store writes so a retry can never overwrite a newer snapshot.
	mu         sync.Mutex
	pending    []domain.Task
	hasPending bool
	failures   int
}

func NewSnapshotSyncer(
	store usecase.SnapshotStore,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg SyncerConfig,
) *SnapshotSyncer {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SnapshotSyncer{
		store:   store,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := s.Flush(ctx); err != nil {
			s.logger.Warn("snapshot retry failed", zap.Error(err))
		}
	})

	return s
}

// Start launches the cron scheduler.
func (s *SnapshotSyncer) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("snapshot syncer started", zap.Duration("interval", s.cfg.Interval))
}

// Stop waits for a running retry and makes a final attempt to write any
// pending snapshot.
func (s *SnapshotSyncer) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	err := s.flush(ctx, true)
	s.logger.Info("snapshot syncer stopped", zap.Bool("pending", s.Pending()))
	return err
}

// Save writes the snapshot. On failure the snapshot is kept for retry and
// the error is still returned so the caller can report degraded storage.
func (s *SnapshotSyncer) Save(ctx context.Context, tasks []domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, tasks); err != nil {
		s.pending = append(s.pending[:0], tasks...)
		s.hasPending = true
		s.failures++
		s.logger.Warn("snapshot write failed, queued for retry",
			zap.Int("tasks", len(tasks)),
			zap.Int("failures", s.failures),
			zap.Error(err))
		return err
	}
	s.clearLocked()
	return nil
}

// Load reads straight from the store.
func (s *SnapshotSyncer) Load(ctx context.Context) ([]domain.Task, bool) {
	return s.store.Load(ctx)
}

// Flush retries the pending snapshot. It is skipped while the monitor
// reports the backend offline.
func (s *SnapshotSyncer) Flush(ctx context.Context) error {
	return s.flush(ctx, false)
}

// Pending reports whether a snapshot is waiting to be written.
func (s *SnapshotSyncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPending
}

func (s *SnapshotSyncer) flush(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasPending {
		return nil
	}
	if !force && s.monitor != nil && !s.monitor.IsOnline() {
		s.logger.Debug("skipping snapshot retry (offline)")
		return nil
	}

	if err := s.store.Save(ctx, s.pending); err != nil {
		s.failures++
		return err
	}
	s.logger.Info("pending snapshot written",
		zap.Int("tasks", len(s.pending)),
		zap.Int("failed_attempts", s.failures))
	s.clearLocked()
	return nil
}

func (s *SnapshotSyncer) clearLocked() {
	s.pending = nil
	s.hasPending = false
	s.failures = 0
}

var _ usecase.SnapshotStore = (*SnapshotSyncer)(nil)
