package hub

import (
	"github.com/rs/zerolog"

	"unibus/internal/domain"
	"unibus/internal/telemetry"
)

// EncodeFunc turns an event into its wire frame. The default is the
// event's own JSON encoding; tests inject counters here.
type EncodeFunc func(domain.Event) ([]byte, error)

// Broadcaster pushes events to every registered observer. Delivery is
// at-most-once: an observer that fails a send is unregistered and
// gets no retry for that event.
type Broadcaster struct {
	registry *Registry
	metrics  telemetry.Sink
	encode   EncodeFunc
	logger   zerolog.Logger
}

func NewBroadcaster(registry *Registry, metrics telemetry.Sink, logger zerolog.Logger) *Broadcaster {
	if metrics == nil {
		metrics = telemetry.NopSink{}
	}
	return &Broadcaster{
		registry: registry,
		metrics:  metrics,
		encode:   func(e domain.Event) ([]byte, error) { return e.Encode() },
		logger:   logger.With().Str("component", "broadcaster").Logger(),
	}
}

// Publish fans the event out to a snapshot of the registry. The frame
// is encoded once, and only when at least one observer is connected.
// Failed observers are pruned after the delivery loop; their failures
// never surface to the caller or abort delivery to the rest.
func (b *Broadcaster) Publish(event domain.Event) {
	observers := b.registry.Snapshot()
	if len(observers) == 0 {
		return
	}

	frame, err := b.encode(event)
	if err != nil {
		b.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("event encode failed, dropping")
		return
	}

	var failed []string
	for _, o := range observers {
		if err := o.TrySend(frame); err != nil {
			b.logger.Debug().
				Err(err).
				Str("observer_id", o.ID).
				Str("event_type", string(event.Type)).
				Msg("delivery failed, pruning observer")
			failed = append(failed, o.ID)
		}
	}

	for _, handle := range failed {
		b.registry.Unregister(handle)
	}

	b.metrics.RecordBroadcast(string(event.Type), len(observers)-len(failed), len(failed))
	if len(failed) > 0 {
		b.metrics.RecordObservers(b.registry.Len())
	}
}
