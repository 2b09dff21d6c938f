package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Источники раскладки (label source).
const (
	SourcePreview = "preview"
	SourceStored  = "stored"
	SourceIndexer = "indexer"
)

var (
	// HTTPRequestsTotal — количество HTTP запросов к API.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_api_http_requests_total",
		Help: "Total HTTP requests handled by trinity-api",
	}, []string{"method", "status"})

	// LayoutsTotal — количество построенных раскладок.
	LayoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_layouts_total",
		Help: "Process layouts computed",
	}, []string{"source"})

	// ParseErrorsTotal — раскладки, упавшие на разборе YAML.
	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_layout_parse_errors_total",
		Help: "Process definitions that failed to parse",
	}, []string{"source"})

	// UnresolvedStepsTotal — шаги, которым не удалось назначить уровень.
	UnresolvedStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_layout_unresolved_steps_total",
		Help: "Steps left without a level (missing or cyclic dependencies)",
	}, []string{"source"})

	// LayoutDuration — время построения раскладки.
	LayoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trinity_layout_duration_seconds",
		Help:    "Time spent parsing and leveling a process definition",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"source"})

	// LayoutSteps — размер процессов.
	LayoutSteps = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trinity_layout_steps",
		Help:    "Number of steps per laid out process definition",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"source"})

	// EventsPublishedTotal — опубликованные события в RabbitMQ.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_events_published_total",
		Help: "Events published to RabbitMQ",
	}, []string{"type", "result"})

	// EventsConsumedTotal — обработанные события по исходу (ack, drop, requeue, dead_letter).
	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_events_consumed_total",
		Help: "Events consumed from RabbitMQ by outcome",
	}, []string{"queue", "outcome"})

	// AMQPReconnectsTotal — успешные переподключения к RabbitMQ.
	AMQPReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trinity_amqp_reconnects_total",
		Help: "Successful reconnects to RabbitMQ",
	}, []string{"connection"})
)

// ObserveLayout записывает метрики одной раскладки.
func ObserveLayout(source string, steps, unresolved int, parseFailed bool, took time.Duration) {
	LayoutsTotal.WithLabelValues(source).Inc()
	LayoutDuration.WithLabelValues(source).Observe(took.Seconds())

	if parseFailed {
		ParseErrorsTotal.WithLabelValues(source).Inc()
		return
	}

	LayoutSteps.WithLabelValues(source).Observe(float64(steps))
	if unresolved > 0 {
		UnresolvedStepsTotal.WithLabelValues(source).Add(float64(unresolved))
	}
}
