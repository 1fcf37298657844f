// Package stats surfaces per-group runtime counters through a dedicated
// prometheus registry: stack swaps, scheduling ticks, run-stack and cothread
// population.
/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package stats

import "github.com/prometheus/client_golang/prometheus"

const namespace = "cothread"

type GroupMetrics struct {
	reg *prometheus.Registry

	Swaps     prometheus.Counter
	Ticks     prometheus.Counter
	Stacks    prometheus.Gauge
	Cothreads prometheus.Gauge
}

// NewGroupMetrics builds the counter set for one group. Each group owns its
// registry, so independent groups never contend on collector registration.
func NewGroupMetrics(groupID string) *GroupMetrics {
	labels := prometheus.Labels{"group": groupID}
	m := &GroupMetrics{
		reg: prometheus.NewRegistry(),
		Swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stack_swaps_total",
			Help:        "Cothreads swapped out of a shared run stack.",
			ConstLabels: labels,
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "sched_ticks_total",
			Help:        "Transitions into the running state (logical clock).",
			ConstLabels: labels,
		}),
		Stacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_stacks",
			Help:        "Run stacks currently owned by the group.",
			ConstLabels: labels,
		}),
		Cothreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cothreads",
			Help:        "Live cothreads in the group, main excluded.",
			ConstLabels: labels,
		}),
	}
	m.reg.MustRegister(m.Swaps, m.Ticks, m.Stacks, m.Cothreads)
	return m
}

func (m *GroupMetrics) Gatherer() prometheus.Gatherer { return m.reg }
