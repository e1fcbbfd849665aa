package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for the alert pipeline.
type PipelineMetrics struct {
	JobsTotal          *prometheus.CounterVec
	JobRetriesTotal    *prometheus.CounterVec
	JobsDeadLettered   *prometheus.CounterVec
	BreachesTotal      *prometheus.CounterVec
	CooldownSuppressed prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	WeatherFetchTotal  *prometheus.CounterVec
}

// NewPipelineMetrics initializes and registers the Prometheus metrics.
func NewPipelineMetrics() *PipelineMetrics {
	return newPipelineMetrics(prometheus.DefaultRegisterer)
}

// NewTestMetrics registers against a throwaway registry so tests can
// construct use cases without double-registration panics.
func NewTestMetrics() *PipelineMetrics {
	return newPipelineMetrics(prometheus.NewRegistry())
}

func newPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Total number of processed jobs by kind and terminal status.",
		}, []string{"kind", "status"}), // status: succeeded, failed, dead_lettered
		JobRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "queue",
			Name:      "job_retries_total",
			Help:      "Total number of job retry attempts by kind.",
		}, []string{"kind"}),
		JobsDeadLettered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "queue",
			Name:      "jobs_dead_lettered_total",
			Help:      "Total number of jobs moved to the dead-letter stream by kind.",
		}, []string{"kind"}),
		BreachesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "monitor",
			Name:      "breaches_total",
			Help:      "Total number of rule firings by rule type.",
		}, []string{"rule_type"}),
		CooldownSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "monitor",
			Name:      "cooldown_suppressed_total",
			Help:      "Total number of breaches suppressed by the cooldown window.",
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "dispatch",
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries by channel and status.",
		}, []string{"channel", "status"}), // status: sent, error
		WeatherFetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_alert",
			Subsystem: "weather",
			Name:      "fetch_total",
			Help:      "Total number of weather fetches by outcome.",
		}, []string{"outcome"}), // outcome: cache_hit, provider, error
	}
}
