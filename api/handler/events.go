package handler

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/internal/services"
	"github.com/fastygo/tasklist/pkg/httpcontext"
	appLogger "github.com/fastygo/tasklist/pkg/logger"
)

// Subscriber hands out event streams.
type Subscriber interface {
	Subscribe() (<-chan services.Event, func())
}

// EventsHandler streams repository updates as server-sent events.
type EventsHandler struct {
	baseHandler
	hub       Subscriber
	keepAlive time.Duration
}

func NewEventsHandler(hub Subscriber, adapter *httpcontext.Adapter, logger *zap.Logger, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		hub:         hub,
		keepAlive:   keepAlive,
	}
}

// @Summary Stream task events
// @Tags events
// @Router /api/v1/events [get]
func (h *EventsHandler) Stream(ctx *fasthttp.RequestCtx) {
	reqCtx, cancel := h.streamContext(ctx)
	log := appLogger.WithRequestID(reqCtx, h.logger)
	events, unsubscribe := h.hub.Subscribe()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")
	ctx.SetStatusCode(fasthttp.StatusOK)

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		log.Debug("event stream opened")
		if err := writeComment(w, "connected"); err != nil {
			return
		}
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					log.Debug("event stream closed by server")
					return
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					log.Debug("event stream client gone", zap.Error(err))
					return
				}
			case <-ticker.C:
				if err := writeComment(w, "ping"); err != nil {
					log.Debug("event stream client gone", zap.Error(err))
					return
				}
			}
		}
	})
}

func (h *EventsHandler) streamContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.AttachStream(ctx)
	}
	return context.WithCancel(context.Background())
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}
