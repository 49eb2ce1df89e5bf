package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// Source exposes the live values the gauges read on every scrape.
type Source interface {
	Count() int
	PendingReminders() int
}

// Metrics owns a private registry so several sessions in one process
// never collide on registration.
type Metrics struct {
	registry      *prometheus.Registry
	notifications *prometheus.CounterVec
	refreshes     prometheus.Counter
	requests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasklist_notifications_total",
				Help: "Notifications emitted by the task repository",
			},
			[]string{"kind"},
		),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tasklist_refreshes_total",
			Help: "Re-render requests emitted by the task repository",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasklist_http_requests_total",
				Help: "HTTP requests served by the API",
			},
			[]string{"method", "status"},
		),
	}
	m.registry.MustRegister(
		m.notifications,
		m.refreshes,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe registers gauges backed by the repository and, when given, the
// pending-snapshot flag of the syncer.
func (m *Metrics) Observe(src Source, pending func() bool) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tasklist_tasks",
			Help: "Tasks currently held in memory",
		}, func() float64 { return float64(src.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tasklist_pending_reminders",
			Help: "Reminders armed and not yet fired",
		}, func() float64 { return float64(src.PendingReminders()) }),
	)
	if pending != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tasklist_snapshot_pending",
			Help: "1 while a failed snapshot write awaits retry",
		}, func() float64 {
			if pending() {
				return 1
			}
			return 0
		}))
	}
}

func (m *Metrics) Notify(n domain.Notification) {
	m.notifications.WithLabelValues(string(n.Kind)).Inc()
}

func (m *Metrics) Refresh() {
	m.refreshes.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Instrument counts requests by method and response status.
func (m *Metrics) Instrument(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		m.requests.WithLabelValues(string(ctx.Method()), strconv.Itoa(ctx.Response.StatusCode())).Inc()
	}
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ usecase.Presenter = (*Metrics)(nil)
