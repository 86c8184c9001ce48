// Package metrics provides the Prometheus collectors for taskflow.
//
// The store, parser and scheduler each declare a small Metrics interface with
// a no-op default. Prometheus implements all three, so one value can be handed
// to every component of a session and exposed on /metrics by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every collector name.
const Namespace = "taskflow"

// Prometheus records taskflow metrics into a prometheus.Registerer.
type Prometheus struct {
	dispatchTotal   *prometheus.CounterVec
	pendingSyncs    prometheus.Gauge
	reconcileTotal  *prometheus.CounterVec
	failureTotal    *prometheus.CounterVec
	parserPathTotal *prometheus.CounterVec
	transitions     prometheus.Counter
	scanTotal       prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg uses a fresh private registry.
func New(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &Prometheus{
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "sync",
				Name:      "dispatch_total",
				Help:      "Remote dispatch attempts by operation and result",
			},
			[]string{"op", "result"},
		),
		pendingSyncs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "sync",
				Name:      "pending",
				Help:      "Remote operations queued or in flight",
			},
		),
		reconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "reconcile_total",
				Help:      "Snapshot reconciliations by result",
			},
			[]string{"result"},
		),
		failureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "sync",
				Name:      "failures_total",
				Help:      "Remote operations that exhausted their retries",
			},
			[]string{"op"},
		),
		parserPathTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "parser",
				Name:      "path_total",
				Help:      "Parsed drafts by the path that produced them",
			},
			[]string{"path"},
		),
		transitions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "scheduler",
				Name:      "transitions_total",
				Help:      "Tasks promoted from yet-to-start to in-progress",
			},
		),
		scanTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "scheduler",
				Name:      "scans_total",
				Help:      "Scheduler scans run",
			},
		),
	}

	reg.MustRegister(
		p.dispatchTotal,
		p.pendingSyncs,
		p.reconcileTotal,
		p.failureTotal,
		p.parserPathTotal,
		p.transitions,
		p.scanTotal,
	)

	return p
}

// Dispatched counts one remote dispatch.
func (p *Prometheus) Dispatched(op, result string) {
	p.dispatchTotal.WithLabelValues(op, result).Inc()
}

// PendingChanged moves the pending gauge by delta.
func (p *Prometheus) PendingChanged(delta int) {
	p.pendingSyncs.Add(float64(delta))
}

// Reconciled counts one LoadData run.
func (p *Prometheus) Reconciled(result string) {
	p.reconcileTotal.WithLabelValues(result).Inc()
}

// SyncFailed counts one remote operation given up on.
func (p *Prometheus) SyncFailed(op string) {
	p.failureTotal.WithLabelValues(op).Inc()
}

// ParsePath counts one parsed draft.
func (p *Prometheus) ParsePath(path string) {
	p.parserPathTotal.WithLabelValues(path).Inc()
}

// Scanned counts one scheduler scan and the tasks it promoted.
func (p *Prometheus) Scanned(promoted int) {
	p.scanTotal.Inc()
	p.transitions.Add(float64(promoted))
}
