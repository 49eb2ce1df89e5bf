package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

type refreshMsg struct{}

type notificationMsg domain.Notification

// Bridge is the repository's presenter for the terminal UI. Program.Send
// blocks until the event loop reads, so messages go through a buffered queue
// drained by a forwarding goroutine. Refreshes are coalesced.
type Bridge struct {
	logger *zap.Logger
	msgs   chan tea.Msg
	done   chan struct{}
	once   sync.Once

	refreshQueued atomic.Bool
}

func NewBridge(logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		logger: logger,
		msgs:   make(chan tea.Msg, 64),
		done:   make(chan struct{}),
	}
}

// Attach starts forwarding queued messages to p until Close.
func (b *Bridge) Attach(p *tea.Program) {
	go b.forward(p.Send)
}

// Close stops forwarding. Later calls to Notify and Refresh are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) Notify(n domain.Notification) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.msgs <- notificationMsg(n):
	default:
		b.logger.Warn("ui queue full, dropping notification", zap.String("kind", string(n.Kind)))
	}
}

func (b *Bridge) Refresh() {
	select {
	case <-b.done:
		return
	default:
	}
	if !b.refreshQueued.CompareAndSwap(false, true) {
		return
	}
	select {
	case b.msgs <- refreshMsg{}:
	default:
		b.refreshQueued.Store(false)
	}
}

func (b *Bridge) forward(send func(tea.Msg)) {
	for {
		select {
		case msg := <-b.msgs:
			if _, ok := msg.(refreshMsg); ok {
				b.refreshQueued.Store(false)
			}
			send(msg)
		case <-b.done:
			return
		}
	}
}

var _ usecase.Presenter = (*Bridge)(nil)
