package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meikuraledutech/workflow"
)

// Metrics collects run and node counters. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	nodes    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_runs_total",
			Help: "Completed workflow runs by terminal status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workflow_run_duration_seconds",
			Help:    "Wall time of workflow runs.",
			Buckets: prometheus.DefBuckets,
		}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_node_executions_total",
			Help: "Node executions by node type and outcome.",
		}, []string{"type", "status"}),
	}
	reg.MustRegister(m.runs, m.duration, m.nodes)
	return m
}

func (m *Metrics) observeRun(status workflow.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) observeNode(t workflow.NodeType, err error) {
	if m == nil {
		return
	}
	status := workflow.StatusSuccess
	if err != nil {
		status = workflow.StatusError
	}
	m.nodes.WithLabelValues(string(t), string(status)).Inc()
}
