package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Submission metrics
	SubmissionsTotal     prometheus.Counter
	SubmissionsDuplicate prometheus.Counter
	SubmissionsConflict  prometheus.Counter
	SubmissionsRejected  *prometheus.CounterVec

	// Settlement metrics
	Settlements        *prometheus.CounterVec
	SettlementAttempts prometheus.Counter
	SettlementRetries  prometheus.Counter
	Reconciles         *prometheus.CounterVec
	Reversals          prometheus.Counter
	GatewayDuration    *prometheus.HistogramVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Submission metrics
		SubmissionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_submissions_total",
			Help: "Total number of cheque submissions accepted",
		}),
		SubmissionsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_submissions_duplicate_total",
			Help: "Total number of duplicate submissions ignored",
		}),
		SubmissionsConflict: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_submissions_conflict_total",
			Help: "Total number of submissions rejected for conflicting payloads",
		}),
		SubmissionsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_submissions_rejected_total",
				Help: "Total number of validation rejections by violation code",
			},
			[]string{"violation"},
		),

		// Settlement metrics
		Settlements: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_settlements_total",
				Help: "Total number of settlement cycles by resulting state",
			},
			[]string{"state"},
		),
		SettlementAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_settlement_attempts_total",
			Help: "Total number of gateway submission attempts",
		}),
		SettlementRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_settlement_retries_total",
			Help: "Total number of retries scheduled after retryable outcomes",
		}),
		Reconciles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_reconciles_total",
				Help: "Total number of gateway reconciles by result",
			},
			[]string{"result"},
		),
		Reversals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chequer_reversals_total",
			Help: "Total number of settled cheques reversed",
		}),
		GatewayDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chequer_gateway_duration_seconds",
				Help:    "Settlement gateway call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chequer_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chequer_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chequer_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chequer_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
	}
}
