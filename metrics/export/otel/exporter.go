// Package otel bridges metric snapshots into an OpenTelemetry meter using
// observable instruments, so collection happens on the reader's schedule
// instead of per event.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/goTenantAuth/metrics/export/internaldefs"
)

// SnapshotFunc supplies the current counter values, typically
// Authority.MetricsSnapshot.
type SnapshotFunc func() internaldefs.Snapshot

// Exporter owns the callback registration. Unregister it before shutting the
// meter provider down.
type Exporter struct {
	registration metric.Registration
}

// Register creates one observable counter per metric plus the latency sum and
// count, and registers a single callback that reads a fresh snapshot per
// collection.
//
// OpenTelemetry has no observable histogram, so the validation latency is
// exported as its sum and count; the full bucket layout stays available
// through the Prometheus exporter.
func Register(meter metric.Meter, snapshot SnapshotFunc) (*Exporter, error) {
	counters := make([]metric.Int64ObservableCounter, internaldefs.MetricIDCount)
	observables := make([]metric.Observable, 0, internaldefs.MetricIDCount+2)

	for id, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, err
		}
		counters[id] = c
		observables = append(observables, c)
	}

	latencySum, err := meter.Float64ObservableCounter(
		internaldefs.ValidateLatencyName+"_sum",
		metric.WithDescription("Total access token validation latency."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	latencyCount, err := meter.Int64ObservableCounter(
		internaldefs.ValidateLatencyName+"_count",
		metric.WithDescription("Access token validations observed."),
	)
	if err != nil {
		return nil, err
	}
	observables = append(observables, latencySum, latencyCount)

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := snapshot()
		for id, c := range counters {
			o.ObserveInt64(c, int64(s.Counters[id]))
		}
		o.ObserveFloat64(latencySum, s.ValidateLatencySum)
		o.ObserveInt64(latencyCount, int64(s.ValidateLatencyCount))
		return nil
	}, observables...)
	if err != nil {
		return nil, err
	}

	return &Exporter{registration: registration}, nil
}

// Unregister removes the callback from the meter.
func (e *Exporter) Unregister() error {
	return e.registration.Unregister()
}
