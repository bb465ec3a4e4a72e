package store

import (
	"context"
	"time"

	"unibus/internal/domain"
)

// Warm replays the durable sample log into the in-memory tracks so a
// restarted process serves latest positions and history immediately.
// Replayed samples bypass the roster check: they were validated when
// first recorded, and a roster that changed since must not erase the
// trail they left.
func (s *Store) Warm(ctx context.Context) error {
	start := time.Now()
	s.logger.Info().Msg("warming position store from sample log")

	count := 0
	err := s.log.Replay(ctx, func(sample domain.PositionSample) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.apply(sample)
		count++
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int("samples", count).Msg("warm aborted")
		return err
	}

	s.logger.Info().
		Int("samples", count).
		Int("vehicles", s.VehicleCount()).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("position store warmed")
	return nil
}
