package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/eventstudy"
)

const namespace = "catalyst"

// Run status labels
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics is the event study metric set on its own registry
// ⭐ SSOT: Prometheus 지표 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	// 이벤트 처리
	EventsProcessed prometheus.Counter
	EventsSkipped   *prometheus.CounterVec

	// 스터디 실행
	StudyRuns        *prometheus.CounterVec
	StudyRunDuration prometheus.Histogram

	// 카탈리스트 수집
	TrialsFetched prometheus.Counter
	EventsMapped  prometheus.Counter
}

// New creates and registers the metric set
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eventstudy",
			Name:      "events_processed_total",
			Help:      "Events that produced a CAR record",
		}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eventstudy",
			Name:      "events_skipped_total",
			Help:      "Events skipped, by reason",
		}, []string{"reason"}),
		StudyRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "study",
			Name:      "runs_total",
			Help:      "Study runs, by status",
		}, []string{"status"}),
		StudyRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "study",
			Name:      "run_duration_seconds",
			Help:      "Study run duration in seconds, including price loading",
			Buckets:   prometheus.DefBuckets,
		}),
		TrialsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalyst",
			Name:      "trials_fetched_total",
			Help:      "Trials fetched from the registry",
		}),
		EventsMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalyst",
			Name:      "events_mapped_total",
			Help:      "Upcoming trials mapped to a ticker",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsProcessed,
		m.EventsSkipped,
		m.StudyRuns,
		m.StudyRunDuration,
		m.TrialsFetched,
		m.EventsMapped,
	)

	// Pre-create every reason so the series exist before the first skip
	for _, reason := range eventstudy.SkipReasons() {
		m.EventsSkipped.WithLabelValues(string(reason))
	}

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SkipHook counts skips by reason; pass it to eventstudy.WithSkipHook
func (m *Metrics) SkipHook() func(contracts.EventDescriptor, eventstudy.SkipReason) {
	return func(_ contracts.EventDescriptor, reason eventstudy.SkipReason) {
		m.EventsSkipped.WithLabelValues(string(reason)).Inc()
	}
}

// ObserveRun records one finished study run
func (m *Metrics) ObserveRun(processed int, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}

	m.StudyRuns.WithLabelValues(status).Inc()
	m.StudyRunDuration.Observe(duration.Seconds())
	m.EventsProcessed.Add(float64(processed))
}
