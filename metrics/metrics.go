// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors exported by the consensus core.
type Metrics struct {
	Registry prometheus.Registerer

	IterationsStarted  prometheus.Counter
	IterationsFailed   *prometheus.CounterVec // labeled by result
	StepTimeouts       *prometheus.CounterVec // labeled by step
	QuorumLatency      *prometheus.HistogramVec
	Equivocations      prometheus.Counter
	RoundsDecided      prometheus.Counter
	EmergencyIterations prometheus.Counter
}

// New registers and returns a Metrics bound to reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		IterationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "iterations_started_total",
			Help:      "Number of iterations started across all rounds.",
		}),
		IterationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "iterations_failed_total",
			Help:      "Number of iterations that failed, labeled by failure result.",
		}, []string{"result"}),
		StepTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "step_timeouts_total",
			Help:      "Number of step deadlines reached, labeled by step name.",
		}, []string{"step"}),
		QuorumLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consensus",
			Name:      "quorum_latency_seconds",
			Help:      "Time from step start to quorum, labeled by step name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		Equivocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "equivocations_total",
			Help:      "Number of detected same-step differing-vote equivocations.",
		}),
		RoundsDecided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "rounds_decided_total",
			Help:      "Number of rounds that produced a decided block.",
		}),
		EmergencyIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consensus",
			Name:      "emergency_iterations_total",
			Help:      "Number of iterations run in emergency mode.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.IterationsStarted,
		m.IterationsFailed,
		m.StepTimeouts,
		m.QuorumLatency,
		m.Equivocations,
		m.RoundsDecided,
		m.EmergencyIterations,
	} {
		_ = reg.Register(c)
	}

	return m
}

// NewNoop returns a Metrics bound to a fresh, unshared registry — useful in
// tests that do not care about collisions with a process-global registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}
