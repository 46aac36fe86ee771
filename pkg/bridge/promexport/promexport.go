// Copyright 2025 Certen Protocol
//
// Package promexport implements bridge.Metrics with Prometheus collectors.
// The teacher's go.mod already declares github.com/prometheus/client_golang
// but the teacher tree never registers a single collector with it; this
// package is where that dependency actually gets used.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// Metrics is a bridge.Metrics backed by Prometheus collectors.
type Metrics struct {
	queueDepth        *prometheus.GaugeVec
	signingAttempts   prometheus.Histogram
	executionAttempts prometheus.Histogram
	signingGiveUps    prometheus.Counter
	executionGiveUps  prometheus.Counter
	effectsTotal      *prometheus.CounterVec
}

// New builds and registers the executor's collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "queue_depth",
			Help:      "Number of items currently buffered in a pipeline queue.",
		}, []string{"queue"}),
		signingAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "signing_attempt",
			Help:      "Attempt number at which a signature collection round ran.",
			Buckets:   prometheus.LinearBuckets(0, 1, 17),
		}),
		executionAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "execution_attempt",
			Help:      "Attempt number at which a settlement submission ran.",
			Buckets:   prometheus.LinearBuckets(0, 1, 17),
		}),
		signingGiveUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "signing_give_up_total",
			Help:      "Actions abandoned by the signing stage after exhausting retries.",
		}),
		executionGiveUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "execution_give_up_total",
			Help:      "Certified actions abandoned by the execution stage after exhausting retries.",
		}),
		effectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "executor",
			Name:      "effects_total",
			Help:      "Settlement transaction outcomes by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.queueDepth, m.signingAttempts, m.executionAttempts, m.signingGiveUps, m.executionGiveUps, m.effectsTotal)
	return m
}

func (m *Metrics) SetQueueDepth(queue string, depth int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

func (m *Metrics) ObserveSigningAttempt(attempt uint64) {
	m.signingAttempts.Observe(float64(attempt))
}

func (m *Metrics) ObserveExecutionAttempt(attempt uint64) {
	m.executionAttempts.Observe(float64(attempt))
}

func (m *Metrics) IncSigningGiveUp() {
	m.signingGiveUps.Inc()
}

func (m *Metrics) IncExecutionGiveUp() {
	m.executionGiveUps.Inc()
}

func (m *Metrics) ObserveEffects(status bridge.EffectsStatus) {
	if status == bridge.EffectsSuccess {
		m.effectsTotal.WithLabelValues("success").Inc()
		return
	}
	m.effectsTotal.WithLabelValues("failure").Inc()
}
