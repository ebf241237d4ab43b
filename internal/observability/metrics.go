package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	activeSessions prometheus.Gauge

	turnsTotal    *prometheus.CounterVec
	turnDuration  prometheus.Histogram
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	eventClients prometheus.Gauge

	httpRequestsTotal *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "voxa_active_sessions",
					Help: "Current resident session count.",
				},
			),
			turnsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voxa_turns_total",
					Help: "Total conversational turns by outcome.",
				},
				[]string{"outcome"},
			),
			turnDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "voxa_turn_duration_seconds",
					Help:    "End-to-end turn duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			stageDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "voxa_stage_duration_seconds",
					Help:    "Pipeline stage duration in seconds by stage.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"stage"},
			),
			stageErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voxa_stage_errors_total",
					Help: "Total pipeline stage errors by stage.",
				},
				[]string{"stage"},
			),
			eventClients: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "voxa_event_clients",
					Help: "Connected turn-event stream clients.",
				},
			),
			httpRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "voxa_http_requests_total",
					Help: "Total HTTP requests by route and status.",
				},
				[]string{"route", "status"},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.turnsTotal,
			m.turnDuration,
			m.stageDuration,
			m.stageErrors,
			m.eventClients,
			m.httpRequestsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetActiveSessions(count int) {
	getMetrics().activeSessions.Set(float64(count))
}

func RecordTurn(outcome string, duration time.Duration) {
	m := getMetrics()
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.Observe(duration.Seconds())
}

func RecordStage(stage string, duration time.Duration) {
	getMetrics().stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordStageError(stage string) {
	getMetrics().stageErrors.WithLabelValues(stage).Inc()
}

func IncEventClients() {
	getMetrics().eventClients.Inc()
}

func DecEventClients() {
	getMetrics().eventClients.Dec()
}

func RecordHTTPRequest(route string, status int) {
	getMetrics().httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
