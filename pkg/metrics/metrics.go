package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Record store metrics
	PatientsCreated prometheus.Counter
	PatientUpdates  prometheus.Counter
	VitalsRecorded  *prometheus.CounterVec

	// Consent workflow metrics
	ConsentSubmissions *prometheus.CounterVec
	ConsentExports     prometheus.Counter

	// Event publishing metrics
	EventsPublished *prometheus.CounterVec

	// Worker metrics
	MailsSent   prometheus.Counter
	MailsFailed prometheus.Counter
}

// NewMetrics creates all application metrics and registers them with reg.
// Pass a fresh prometheus.NewRegistry() in tests to avoid duplicate
// registration panics.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "route"}),

		PatientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patients",
			Name:      "created_total",
			Help:      "Total number of registered patients",
		}),
		PatientUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patients",
			Name:      "updates_total",
			Help:      "Total number of patient record updates",
		}),
		VitalsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patients",
			Name:      "vitals_recorded_total",
			Help:      "Total number of vital sign readings appended",
		}, []string{"type"}),

		ConsentSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consent",
			Name:      "submissions_total",
			Help:      "Consent submissions by outcome",
		}, []string{"outcome"}),
		ConsentExports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consent",
			Name:      "exports_total",
			Help:      "Total number of rendered consent documents",
		}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the broker",
		}, []string{"event_type", "status"}),

		MailsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "mails_sent_total",
			Help:      "Consent mails delivered",
		}),
		MailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "mails_failed_total",
			Help:      "Consent mails that could not be delivered",
		}),
	}
}
