package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session collectors.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsFinished *prometheus.CounterVec
	FieldsAppended   prometheus.Counter
	SessionDuration  *prometheus.HistogramVec
	ActiveSessions   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "scribe_sessions_started_total",
			Help: "Total number of embed sessions started",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_sessions_finished_total",
			Help: "Total number of embed sessions finished, by outcome",
		}, []string{"outcome"}),
		FieldsAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "scribe_fields_appended_total",
			Help: "Total number of fields appended to documents",
		}),
		SessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scribe_session_duration_seconds",
			Help:    "Duration of embed sessions in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}, []string{"outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scribe_active_sessions",
			Help: "Number of sessions currently running",
		}),
	}
}
