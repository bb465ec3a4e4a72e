// Package telemetry fans operational measurements out to the
// configured sinks. The tracking pipeline reports through the Sink
// interface and never learns which backends are attached.
package telemetry

import "unibus/internal/domain"

// Sink receives measurements from the tracking core
type Sink interface {
	// RecordSample counts one accepted position sample
	RecordSample(s domain.PositionSample)

	// RecordBroadcast counts one published event with its delivery
	// outcome: how many observers received it and how many failed.
	RecordBroadcast(eventType string, receivers, failures int)

	// RecordObservers tracks the current number of live observers
	RecordObservers(count int)
}

// NopSink discards all measurements
type NopSink struct{}

func (NopSink) RecordSample(domain.PositionSample) {}
func (NopSink) RecordBroadcast(string, int, int)   {}
func (NopSink) RecordObservers(int)                {}

// MultiSink forwards every measurement to all attached sinks
type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordSample(s domain.PositionSample) {
	for _, sink := range m.Sinks {
		sink.RecordSample(s)
	}
}

func (m *MultiSink) RecordBroadcast(eventType string, receivers, failures int) {
	for _, sink := range m.Sinks {
		sink.RecordBroadcast(eventType, receivers, failures)
	}
}

func (m *MultiSink) RecordObservers(count int) {
	for _, sink := range m.Sinks {
		sink.RecordObservers(count)
	}
}
