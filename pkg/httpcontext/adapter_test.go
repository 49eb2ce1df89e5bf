package httpcontext

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasklist/pkg/logger"
)

func TestAdapter_KeepsIncomingRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "abc-123")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "abc-123", appLogger.RequestID(ctx))
	assert.Equal(t, "abc-123", string(rc.Response.Header.Peek("X-Request-ID")))
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestAdapter_GeneratesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx

	ctx, cancel := NewAdapter(0).AttachStream(&rc)
	defer cancel()

	_, err := uuid.Parse(appLogger.RequestID(ctx))
	assert.NoError(t, err)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
}
