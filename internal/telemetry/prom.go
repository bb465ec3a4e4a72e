package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"unibus/internal/domain"
)

// PromSink records tracking activity in Prometheus metrics.
type PromSink struct {
	samples    *prometheus.CounterVec
	broadcasts *prometheus.CounterVec
	failures   *prometheus.CounterVec
	observers  prometheus.Gauge
}

// NewPromSink registers the tracking collectors on reg. If reg is
// nil, the default registerer is used; already registered collectors
// are reused so repeated construction is safe.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unibus_samples_total",
		Help: "Total accepted position samples",
	}, []string{"vehicle_id", "crowd_level"})
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unibus_broadcasts_total",
		Help: "Total published events",
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unibus_broadcast_failures_total",
		Help: "Observer deliveries that failed and caused unregistration",
	}, []string{"event_type"})
	observers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "unibus_observers",
		Help: "Currently connected observers",
	})

	if err := reg.Register(samples); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			samples = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(broadcasts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			broadcasts = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(failures); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			failures = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(observers); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			observers = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		samples:    samples,
		broadcasts: broadcasts,
		failures:   failures,
		observers:  observers,
	}, nil
}

func (s *PromSink) RecordSample(sample domain.PositionSample) {
	s.samples.WithLabelValues(string(sample.VehicleID), string(sample.CrowdLevel)).Inc()
}

func (s *PromSink) RecordBroadcast(eventType string, receivers, failures int) {
	s.broadcasts.WithLabelValues(eventType).Inc()
	if failures > 0 {
		s.failures.WithLabelValues(eventType).Add(float64(failures))
	}
}

func (s *PromSink) RecordObservers(count int) {
	s.observers.Set(float64(count))
}
