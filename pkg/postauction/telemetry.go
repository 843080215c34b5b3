// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/postauction/pkg/log"
)

// Telemetry is the narrow observability interface the matcher depends on:
// counters for hits, histograms for outcomes, and a structured error
// channel for recoverable per-event failures. Counter names are stable —
// see the recordHit/doError call sites in dispatcher.go, winloss.go and
// campaign.go for the required set.
type Telemetry interface {
	RecordHit(name string, args ...string)
	RecordOutcome(value float64, name string, args ...string)
	DoError(scope, message string)
}

// MetricsTelemetry implements Telemetry over github.com/luxfi/metric,
// plus pkg/log for the structured log line each error also gets.
type MetricsTelemetry struct {
	instance metrics.Metrics
	log      log.Logger

	hits      metrics.CounterVec
	outcomes  metrics.Histogram
	errors    metrics.CounterVec
}

// NewMetricsTelemetry builds a Telemetry backed by a fresh Prometheus
// registry, namespaced "postauction".
func NewMetricsTelemetry(logger log.Logger) *MetricsTelemetry {
	if logger == nil {
		logger = log.NoOp()
	}

	factory := metrics.NewPrometheusFactory()
	instance := factory.New("postauction")

	return &MetricsTelemetry{
		instance: instance,
		log:      logger,
		hits: instance.NewCounterVec(
			"postauction_hits_total",
			"Count of recordHit events by counter name",
			[]string{"name"},
		),
		outcomes: instance.NewHistogram(
			"postauction_outcomes",
			"Observed outcome values (gap ms, prices), all counter names in one histogram",
			prometheus.DefBuckets,
		),
		errors: instance.NewCounterVec(
			"postauction_errors_total",
			"Count of recoverable per-event errors by scope",
			[]string{"scope"},
		),
	}
}

// RecordHit implements Telemetry.
func (m *MetricsTelemetry) RecordHit(name string, args ...string) {
	m.hits.WithLabelValues(joinCounterName(name, args)).Inc()
}

// RecordOutcome implements Telemetry. Every value goes into the single
// outcomes histogram; name and args are not recorded.
func (m *MetricsTelemetry) RecordOutcome(value float64, name string, args ...string) {
	m.outcomes.Observe(value)
}

// DoError implements Telemetry.
func (m *MetricsTelemetry) DoError(scope, message string) {
	m.errors.WithLabelValues(scope).Inc()
	m.log.Error(scope + ": " + message)
}

// Gatherer exposes the underlying Prometheus registry for HTTP export.
func (m *MetricsTelemetry) Gatherer() prometheus.Gatherer {
	if registry := m.instance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

func joinCounterName(name string, args []string) string {
	for _, a := range args {
		name = name + "." + a
	}
	return name
}

// noOpTelemetry drops everything. Useful for tests that only care about
// banker/sink behavior.
type noOpTelemetry struct{}

// NoOpTelemetry returns a Telemetry that discards everything.
func NoOpTelemetry() Telemetry { return noOpTelemetry{} }

func (noOpTelemetry) RecordHit(string, ...string)            {}
func (noOpTelemetry) RecordOutcome(float64, string, ...string) {}
func (noOpTelemetry) DoError(string, string)                  {}
