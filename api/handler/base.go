package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/api/transport"
	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/pkg/httpcontext"
	appLogger "github.com/fastygo/tasklist/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		appLogger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

// respondMutation reports a change that was applied in memory. A storage
// failure downgrades the reply to a success flagged as degraded instead of
// an error, because the change is visible and will be retried.
func (h baseHandler) respondMutation(ctx *fasthttp.RequestCtx, stdCtx context.Context, status int, data interface{}, err error) {
	if err == nil {
		h.respondSuccess(ctx, status, data)
		return
	}
	if !domain.IsDomainError(err, domain.ErrCodeStorage) {
		h.respondError(ctx, stdCtx, err)
		return
	}
	appLogger.WithRequestID(stdCtx, h.logger).Warn("change kept in memory only", zap.Error(err))
	h.respondJSON(ctx, status, transport.NewDegraded(data, err))
}

func mapError(err error) (int, domain.ErrorCode) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, domain.ErrCodeConflict
	case domain.IsDomainError(err, domain.ErrCodeStorage):
		return http.StatusServiceUnavailable, domain.ErrCodeStorage
	case domain.IsDomainError(err, domain.ErrCodeNetwork):
		return http.StatusBadGateway, domain.ErrCodeNetwork
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}
