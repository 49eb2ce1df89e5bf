package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is the snapshot backend being watched.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PendingReporter reports whether a snapshot write is waiting for retry.
type PendingReporter interface {
	Pending() bool
}

type Monitor struct {
	store   Pinger
	backend string
	pending PendingReporter

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(store Pinger, backend string, pending PendingReporter, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		backend:  backend,
		pending:  pending,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Store: true, Backend: backend},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	status := Status{
		Store:           m.checkStore(),
		Backend:         m.backend,
		PendingSnapshot: m.pending != nil && m.pending.Pending(),
		LastCheck:       time.Now(),
	}

	m.mu.Lock()
	wasOnline := m.status.Store
	m.status = status
	m.mu.Unlock()

	if wasOnline != status.Store {
		m.logger.Info("snapshot store availability changed",
			zap.String("backend", m.backend),
			zap.Bool("online", status.Store))
	}
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.store.Ping(ctx); err != nil {
		m.logger.Debug("snapshot store ping failed", zap.String("backend", m.backend), zap.Error(err))
		return false
	}
	return true
}
