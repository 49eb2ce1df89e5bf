package services

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// Event names sent to stream subscribers.
const (
	EventRefresh      = "refresh"
	EventNotification = "notification"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// EventHub fans repository updates out to live subscribers. Delivery never
// blocks the repository: a subscriber whose buffer is full misses the event.
type EventHub struct {
	logger *zap.Logger
	buffer int

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewEventHub(buffer int, logger *zap.Logger) *EventHub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHub{logger: logger, buffer: buffer, subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The channel is closed by the returned
// cancel func or when the hub shuts down.
func (h *EventHub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *EventHub) Notify(n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("encode notification", zap.Error(err))
		return
	}
	h.broadcast(Event{Name: EventNotification, Data: data})
}

func (h *EventHub) Refresh() {
	h.broadcast(Event{Name: EventRefresh, Data: []byte("{}")})
}

// Close ends every subscription.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *EventHub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping event for slow subscriber", zap.Int("subscriber", id), zap.String("event", ev.Name))
		}
	}
}

var _ usecase.Presenter = (*EventHub)(nil)
