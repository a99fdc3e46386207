// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/survivalserver/logger"
)

type Metrics struct {
	ActiveSessions  prometheus.Gauge
	Actions         *prometheus.CounterVec
	ActionErrors    *prometheus.CounterVec
	GraphViolations prometheus.Counter
	ActionLatency   prometheus.Histogram
	SessionsEvicted prometheus.Counter
	SessionsCreated prometheus.Counter
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions held in the cache",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total number of dispatched actions",
		}, []string{"family", "outcome"}),
		ActionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_errors_total",
			Help:      "Rejected actions by error code",
		}, []string{"code"}),
		GraphViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_graph_violations_total",
			Help:      "Phase transitions not present in the transition graph",
		}),
		ActionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Action processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Idle sessions dropped from the cache",
		}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions started",
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.Actions,
		m.ActionErrors,
		m.GraphViolations,
		m.ActionLatency,
		m.SessionsEvicted,
		m.SessionsCreated,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

var publishOnce sync.Once

// NewMonitor registers on the default registry.
func NewMonitor(namespace string) *Monitor {
	return NewMonitorWith(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMonitorWith registers on reg and serves from g. Tests pass a fresh
// prometheus.NewRegistry() for both.
func NewMonitorWith(namespace string, reg prometheus.Registerer, g prometheus.Gatherer) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		gatherer:  g,
		startTime: time.Now(),
	}
}

// Handler serves /metrics for the monitor's registry.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Publish exposes uptime and request count through expvar. Only the first
// monitor in a process is published.
func (m *Monitor) Publish() {
	publishOnce.Do(func() {
		// 添加expvar指标
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))

		expvar.Publish("requests", expvar.Func(func() interface{} {
			return m.Requests()
		}))
	})
}

func (m *Monitor) Requests() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.requestCount
}

func (m *Monitor) SetActiveSessions(count int) {
	m.metrics.ActiveSessions.Set(float64(count))
}

func (m *Monitor) IncSessionsCreated() {
	m.metrics.SessionsCreated.Inc()
}

func (m *Monitor) AddEvicted(n int) {
	m.metrics.SessionsEvicted.Add(float64(n))
}

// ObserveAction counts one dispatched action. outcome is "ok" or the
// error code.
func (m *Monitor) ObserveAction(family, outcome string, duration time.Duration) {
	m.metrics.Actions.WithLabelValues(family, outcome).Inc()
	if outcome != "ok" {
		m.metrics.ActionErrors.WithLabelValues(outcome).Inc()
	}
	m.metrics.ActionLatency.Observe(duration.Seconds())
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncGraphViolations() {
	m.metrics.GraphViolations.Inc()
}

// Serve exposes handler at /metrics on its own listener. It blocks.
func Serve(addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.Handle("/debug/vars", expvar.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Log.Errorw("metrics server stopped", "addr", addr, "error", err)
	}
}
