package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration    *prom.HistogramVec
	jobDuration     *prom.HistogramVec
	stepResults     *prom.CounterVec
	runOutcome      *prom.CounterVec
	publishAttempts *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the
// given registry (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pipewright",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"runner", "step"}),
		jobDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pipewright",
			Name:      "job_duration_seconds",
			Help:      "Duration of whole matrix jobs",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}, []string{"runner"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pipewright",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"runner", "step", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pipewright",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		publishAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pipewright",
			Name:      "publish_attempts_total",
			Help:      "Registry publish attempts by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stepDuration, pr.jobDuration, pr.stepResults, pr.runOutcome, pr.publishAttempts)
	return pr
}

func (pr *PrometheusRecorder) ObserveStepDuration(runner, step string, d time.Duration) {
	pr.stepDuration.WithLabelValues(runner, step).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveJobDuration(runner string, d time.Duration) {
	pr.jobDuration.WithLabelValues(runner).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncStepResult(runner, step string, result ResultLabel) {
	pr.stepResults.WithLabelValues(runner, step, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncRunOutcome(outcome string) {
	pr.runOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncPublishAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	pr.publishAttempts.WithLabelValues(result).Inc()
}
