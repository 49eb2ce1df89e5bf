package router

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/tasklist/api/handler"
	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/internal/infrastructure/monitor"
	"github.com/fastygo/tasklist/internal/metrics"
	"github.com/fastygo/tasklist/internal/middleware"
	"github.com/fastygo/tasklist/internal/services"
	"github.com/fastygo/tasklist/pkg/httpcontext"
	"github.com/fastygo/tasklist/usecase"
	"github.com/fastygo/tasklist/usecase/auth"
	"github.com/fastygo/tasklist/usecase/reminder/remindertest"
	taskUC "github.com/fastygo/tasklist/usecase/task"
)

type memStore struct {
	mu    sync.Mutex
	saved []domain.Task
	fail  bool
}

func (s *memStore) Save(_ context.Context, tasks []domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return domain.StorageError("write snapshot", errors.New("disk full"))
	}
	s.saved = append([]domain.Task(nil), tasks...)
	return nil
}

func (s *memStore) Load(context.Context) ([]domain.Task, bool) { return nil, false }

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

type api struct {
	handler fasthttp.RequestHandler
	uc      *taskUC.UseCase
	store   *memStore
	clock   *remindertest.ManualClock
	hub     *services.EventHub
}

func newAPI(t *testing.T, secret string) *api {
	t.Helper()
	store := &memStore{}
	clock := remindertest.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	hub := services.NewEventHub(8, nil)
	m := metrics.New()
	uc := taskUC.New(store, usecase.Presenters{hub, m}, nil, taskUC.WithClock(clock))
	t.Cleanup(uc.Close)
	m.Observe(uc, nil)

	adapter := httpcontext.NewAdapter(time.Second)
	mon := monitor.New(store, "memory", nil, time.Minute, nil)
	r := New(Handlers{
		Task:    apiHandler.NewTaskHandler(uc, adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, uc, adapter, nil),
		Events:  apiHandler.NewEventsHandler(hub, adapter, nil, time.Minute),
		Metrics: m.Handler(),
	}, middleware.JWTAuth(auth.New(secret, "tasklist", nil), nil))

	return &api{handler: m.Instrument(r.Handler), uc: uc, store: store, clock: clock, hub: hub}
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

func (a *api) do(t *testing.T, method, uri, body string) (int, envelope) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	a.handler(&ctx)

	var env envelope
	if strings.HasPrefix(string(ctx.Response.Header.ContentType()), "application/json") {
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	}
	return ctx.Response.StatusCode(), env
}

type taskView struct {
	ID             int64      `json:"id"`
	Text           string     `json:"text"`
	Completed      bool       `json:"completed"`
	ReminderActive bool       `json:"reminderActive"`
	RemindAt       *time.Time `json:"remindAt"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAPI_TaskLifecycle(t *testing.T) {
	a := newAPI(t, "")

	status, env := a.do(t, "POST", "/api/v1/tasks", `{"text":"  Buy milk  "}`)
	require.Equal(t, fasthttp.StatusCreated, status)
	created := decode[taskView](t, env.Data)
	assert.Equal(t, "Buy milk", created.Text)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), created.ID)

	id := "/api/v1/tasks/" + itoa(created.ID)

	status, env = a.do(t, "PUT", id+"/reminder", `{"seconds":5}`)
	require.Equal(t, fasthttp.StatusOK, status)
	armed := decode[taskView](t, env.Data)
	assert.True(t, armed.ReminderActive)
	require.NotNil(t, armed.RemindAt)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC), *armed.RemindAt)

	status, env = a.do(t, "POST", id+"/toggle", "")
	require.Equal(t, fasthttp.StatusOK, status)
	done := decode[taskView](t, env.Data)
	assert.True(t, done.Completed)
	assert.False(t, done.ReminderActive)
	assert.Nil(t, done.RemindAt)
	assert.Zero(t, a.uc.PendingReminders())

	status, env = a.do(t, "PUT", id+"/reminder", `{"seconds":"10"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, domain.ErrReminderOnCompleted.Message, env.Error)

	status, env = a.do(t, "GET", "/api/v1/tasks?filter=completed", "")
	require.Equal(t, fasthttp.StatusOK, status)
	list := decode[struct {
		Filter string     `json:"filter"`
		Total  int        `json:"total"`
		Tasks  []taskView `json:"tasks"`
	}](t, env.Data)
	assert.Equal(t, "completed", list.Filter)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Tasks, 1)

	status, _ = a.do(t, "DELETE", id, "")
	assert.Equal(t, fasthttp.StatusOK, status)
	status, _ = a.do(t, "GET", id, "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Empty(t, a.store.saved)
}

func TestAPI_ValidationErrors(t *testing.T) {
	a := newAPI(t, "")
	_, env := a.do(t, "POST", "/api/v1/tasks", `{"text":"x"}`)
	id := "/api/v1/tasks/" + itoa(decode[taskView](t, env.Data).ID)

	for name, tc := range map[string]struct {
		method, uri, body string
		status            int
	}{
		"blank text":    {"POST", "/api/v1/tasks", `{"text":"   "}`, fasthttp.StatusBadRequest},
		"bad json":      {"POST", "/api/v1/tasks", `{`, fasthttp.StatusBadRequest},
		"bad filter":    {"GET", "/api/v1/tasks?filter=someday", "", fasthttp.StatusBadRequest},
		"bad id":        {"GET", "/api/v1/tasks/abc", "", fasthttp.StatusBadRequest},
		"missing":       {"POST", "/api/v1/tasks/42/toggle", "", fasthttp.StatusNotFound},
		"zero delay":    {"PUT", id + "/reminder", `{"seconds":0}`, fasthttp.StatusBadRequest},
		"text delay":    {"PUT", id + "/reminder", `{"seconds":"soon"}`, fasthttp.StatusBadRequest},
		"missing delay": {"PUT", id + "/reminder", `{}`, fasthttp.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			status, env := a.do(t, tc.method, tc.uri, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, "error", env.Status)
		})
	}
	assert.Equal(t, 1, a.uc.Count())
}

func TestAPI_DeleteAllNeedsConfirmation(t *testing.T) {
	a := newAPI(t, "")
	a.do(t, "POST", "/api/v1/tasks", `{"text":"A"}`)
	a.do(t, "POST", "/api/v1/tasks", `{"text":"B"}`)

	status, env := a.do(t, "DELETE", "/api/v1/tasks", "")
	assert.Equal(t, fasthttp.StatusConflict, status)
	assert.Equal(t, string(domain.ErrCodeConflict), env.Code)
	assert.Equal(t, 2, a.uc.Count())

	status, env = a.do(t, "DELETE", "/api/v1/tasks?confirm=true", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"deleted":2}`, string(env.Data))
	assert.Zero(t, a.uc.Count())
	assert.Empty(t, a.store.saved)

	status, env = a.do(t, "DELETE", "/api/v1/tasks", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"deleted":0}`, string(env.Data))
	assert.JSONEq(t, `{"message":"nothing to delete"}`, string(env.Meta))
}

func TestAPI_StorageFailureIsDegradedSuccess(t *testing.T) {
	a := newAPI(t, "")
	a.store.setFail(true)

	status, env := a.do(t, "POST", "/api/v1/tasks", `{"text":"kept in memory"}`)
	require.Equal(t, fasthttp.StatusCreated, status)
	assert.Equal(t, "success", env.Status)
	meta := decode[struct {
		Degraded bool   `json:"degraded"`
		Warning  string `json:"warning"`
	}](t, env.Meta)
	assert.True(t, meta.Degraded)
	assert.Contains(t, meta.Warning, "disk full")
	assert.Equal(t, 1, a.uc.Count())
}

func TestAPI_ReminderFiresAndClears(t *testing.T) {
	a := newAPI(t, "")
	_, env := a.do(t, "POST", "/api/v1/tasks", `{"text":"Call mom"}`)
	id := "/api/v1/tasks/" + itoa(decode[taskView](t, env.Data).ID)
	a.do(t, "PUT", id+"/reminder", `{"seconds":2.5}`)

	assert.Equal(t, 1, a.clock.Advance(3*time.Second))

	_, env = a.do(t, "GET", id, "")
	got := decode[taskView](t, env.Data)
	assert.False(t, got.ReminderActive)
	assert.Nil(t, got.RemindAt)

	status, env := a.do(t, "DELETE", id+"/reminder", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.False(t, decode[taskView](t, env.Data).ReminderActive)
}

func TestAPI_AuthGuard(t *testing.T) {
	a := newAPI(t, "s3cret")

	status, _ := a.do(t, "GET", "/api/v1/tasks", "")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)

	status, _ = a.do(t, "GET", "/health", "")
	assert.Equal(t, fasthttp.StatusOK, status)
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	a := newAPI(t, "")
	a.do(t, "POST", "/api/v1/tasks", `{"text":"A"}`)

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/metrics")
	a.handler(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.Contains(t, body, "tasklist_tasks 1")
	assert.Contains(t, body, `tasklist_http_requests_total{method="POST",status="201"} 1`)
}

func TestAPI_EventStream(t *testing.T) {
	a := newAPI(t, "")
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: a.handler}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Shutdown() }()

	conn, err := ln.Dial()
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte("GET /api/v1/events HTTP/1.1\r\nHost: tasklist\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return strings.TrimSpace(line)
			}
		}
	}

	readUntil(": connected")
	_, err = a.uc.DeleteAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "event: notification", readUntil("event: notification"))
	assert.Contains(t, readUntil("data:"), `"kind":"nothing_to_delete"`)

	a.hub.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
