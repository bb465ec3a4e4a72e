// Package tracker runs the record pipeline: normalize a driver
// sample, fill its ETA, persist it through the store, and only then
// broadcast the location event to the live observers.
package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"unibus/internal/domain"
	"unibus/internal/store"
	"unibus/internal/telemetry"
)

// Publisher fans an event out to the observers
type Publisher interface {
	Publish(event domain.Event)
}

type Tracker struct {
	store     *store.Store
	publisher Publisher
	estimator *Estimator
	metrics   telemetry.Sink
	logger    zerolog.Logger
}

func New(s *store.Store, publisher Publisher, estimator *Estimator, metrics telemetry.Sink, logger zerolog.Logger) *Tracker {
	if metrics == nil {
		metrics = telemetry.NopSink{}
	}
	return &Tracker{
		store:     s,
		publisher: publisher,
		estimator: estimator,
		metrics:   metrics,
		logger:    logger.With().Str("component", "tracker").Logger(),
	}
}

// Record accepts one position sample. The sample is broadcast at most
// once, and only after the durable append succeeded: a store error
// returns to the caller with nothing published. The stored and
// broadcast sample are the same value, ETA included.
func (t *Tracker) Record(ctx context.Context, sample domain.PositionSample) (domain.PositionSample, error) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if !sample.CrowdLevel.Valid() {
		sample.CrowdLevel = domain.CrowdMedium
	}
	if sample.ETAMinutes == nil && sample.NextStopID != "" && t.estimator != nil {
		if eta, ok := t.estimator.Estimate(sample); ok {
			sample.ETAMinutes = &eta
		}
	}

	if err := t.store.Record(ctx, sample); err != nil {
		return domain.PositionSample{}, err
	}

	t.publisher.Publish(domain.NewLocationUpdate(sample))
	t.metrics.RecordSample(sample)

	t.logger.Debug().
		Str("vehicle_id", string(sample.VehicleID)).
		Float64("latitude", sample.Latitude).
		Float64("longitude", sample.Longitude).
		Msg("sample recorded")
	return sample, nil
}
