package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/api/transport"
	"github.com/fastygo/tasklist/internal/infrastructure/monitor"
	"github.com/fastygo/tasklist/pkg/httpcontext"
)

// StatusProvider reports snapshot store health.
type StatusProvider interface {
	GetStatus() monitor.Status
}

// TaskCounter reports repository size.
type TaskCounter interface {
	Count() int
	PendingReminders() int
}

type HealthHandler struct {
	baseHandler
	monitor StatusProvider
	tasks   TaskCounter
}

func NewHealthHandler(mon StatusProvider, tasks TaskCounter, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		tasks:       tasks,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"store": map[string]interface{}{
			"backend":          status.Backend,
			"online":           status.Store,
			"pending_snapshot": status.PendingSnapshot,
			"last_check":       status.LastCheck,
		},
		"tasks": map[string]interface{}{
			"count":             h.tasks.Count(),
			"pending_reminders": h.tasks.PendingReminders(),
		},
	}

	if status.Store && !status.PendingSnapshot {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "snapshot store unhealthy", payload))
}
