package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"insiderwatch/pkg/models"
)

// Recorder tracks per-run metrics in a private registry and delivers
// them to a Pushgateway. The engine never listens for scrapes; push is
// the only delivery path.
type Recorder struct {
	registry *prometheus.Registry

	events   prometheus.Gauge
	users    prometheus.Gauge
	outliers prometheus.Gauge
	alerts   prometheus.Gauge
	duration prometheus.Gauge
	runs     prometheus.Counter
}

// NewRecorder creates a recorder with all run metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insiderwatch_events_processed",
			Help: "Events ingested by the last run.",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insiderwatch_users_scored",
			Help: "Distinct users scored by the last run.",
		}),
		outliers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insiderwatch_outliers_flagged",
			Help: "Users flagged as outliers by the last run.",
		}),
		alerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insiderwatch_alerts_emitted",
			Help: "Alerts emitted by the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insiderwatch_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insiderwatch_runs_total",
			Help: "Completed analysis runs.",
		}),
	}

	r.registry.MustRegister(r.events, r.users, r.outliers, r.alerts, r.duration, r.runs)
	return r
}

// Observe records the outcome of one completed run.
func (r *Recorder) Observe(stats models.RunStats) {
	r.events.Set(float64(stats.Events))
	r.users.Set(float64(stats.Users))
	r.outliers.Set(float64(stats.Outliers))
	r.alerts.Set(float64(stats.Alerts))
	r.duration.Set(stats.Elapsed.Seconds())
	r.runs.Inc()
}

// Push delivers the current metrics to a Pushgateway under the given
// job name.
func (r *Recorder) Push(url, job string) error {
	if job == "" {
		job = "insiderwatch"
	}
	if err := push.New(url, job).Gatherer(r.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
