// Package store keeps the in-memory tracking state: the latest
// position per vehicle and a bounded, newest-first history window.
// The durable sample log is written before any in-memory mutation, so
// acknowledged samples are always persisted.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"unibus/internal/domain"
	"unibus/internal/samplelog"
)

// ErrNotAssigned rejects a sample for a vehicle with no active
// assignment covering the sample timestamp. Not retryable until the
// roster changes.
var ErrNotAssigned = errors.New("vehicle has no active assignment")

// PersistenceError wraps a failed durable append. The sample was not
// stored and must not be broadcast; the caller may retry.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sample not persisted: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// AssignmentSource resolves the duty roster. Implemented by the
// directory; the backing store guarantees at most one active
// assignment per vehicle.
type AssignmentSource interface {
	ActiveAssignmentFor(id domain.VehicleID, at time.Time) (domain.Assignment, bool)
	ActiveAssignmentsNow() []domain.Assignment
}

type track struct {
	mu      sync.Mutex
	latest  domain.PositionSample
	hasData bool
	history []domain.PositionSample // newest first
}

type Store struct {
	mu     sync.RWMutex
	tracks map[domain.VehicleID]*track

	assignments AssignmentSource
	log         samplelog.Log
	window      time.Duration
	logger      zerolog.Logger
}

func New(assignments AssignmentSource, log samplelog.Log, window time.Duration, logger zerolog.Logger) *Store {
	if window <= 0 {
		window = 168 * time.Hour
	}
	return &Store{
		tracks:      make(map[domain.VehicleID]*track),
		assignments: assignments,
		log:         log,
		window:      window,
		logger:      logger.With().Str("component", "position_store").Logger(),
	}
}

// Record validates the sample against the roster, appends it to the
// durable log and only then updates the in-memory track. Calls for
// the same vehicle serialize on the track mutex; distinct vehicles do
// not contend beyond the map lookup.
func (s *Store) Record(ctx context.Context, sample domain.PositionSample) error {
	if _, ok := s.assignments.ActiveAssignmentFor(sample.VehicleID, sample.Timestamp); !ok {
		return fmt.Errorf("vehicle %s at %s: %w", sample.VehicleID, sample.Timestamp.Format(time.RFC3339), ErrNotAssigned)
	}

	if err := s.log.Append(ctx, sample); err != nil {
		return &PersistenceError{Cause: err}
	}

	s.apply(sample)
	return nil
}

// apply inserts an already-persisted sample into the in-memory track
func (s *Store) apply(sample domain.PositionSample) {
	t := s.trackFor(sample.VehicleID)

	t.mu.Lock()
	defer t.mu.Unlock()

	// latest is the max-timestamp sample; on equal timestamps the
	// later insertion wins, which keeps replays deterministic.
	if !t.hasData || !sample.Timestamp.Before(t.latest.Timestamp) {
		t.latest = sample
		t.hasData = true
	}

	t.history = insertNewestFirst(t.history, sample)

	cutoff := time.Now().Add(-s.window)
	for len(t.history) > 0 && t.history[len(t.history)-1].Timestamp.Before(cutoff) {
		t.history = t.history[:len(t.history)-1]
	}
}

func (s *Store) trackFor(id domain.VehicleID) *track {
	s.mu.RLock()
	t, ok := s.tracks[id]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.tracks[id]; ok {
		return t
	}
	t = &track{}
	s.tracks[id] = t
	return t
}

// Latest returns the most recent sample for the vehicle, if any
func (s *Store) Latest(id domain.VehicleID) (domain.PositionSample, bool) {
	s.mu.RLock()
	t, ok := s.tracks[id]
	s.mu.RUnlock()
	if !ok {
		return domain.PositionSample{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasData {
		return domain.PositionSample{}, false
	}
	return t.latest, true
}

// History returns the vehicle's samples newer than since, newest
// first. The retention window clamps how far back since can reach.
func (s *Store) History(id domain.VehicleID, since time.Time) []domain.PositionSample {
	if floor := time.Now().Add(-s.window); since.Before(floor) {
		since = floor
	}

	s.mu.RLock()
	t, ok := s.tracks[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]domain.PositionSample, 0, len(t.history))
	for _, sample := range t.history {
		if sample.Timestamp.Before(since) {
			break
		}
		result = append(result, sample)
	}
	return result
}

// AllLatest returns the latest sample for every vehicle with an
// active assignment. Vehicles that have never reported are absent.
func (s *Store) AllLatest(ctx context.Context) map[domain.VehicleID]domain.PositionSample {
	assignments := s.assignments.ActiveAssignmentsNow()

	result := make(map[domain.VehicleID]domain.PositionSample, len(assignments))
	for _, a := range assignments {
		if ctx.Err() != nil {
			return result
		}
		if sample, ok := s.Latest(a.VehicleID); ok {
			result[a.VehicleID] = sample
		}
	}
	return result
}

// VehicleCount reports how many vehicles have reported at least once
func (s *Store) VehicleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

func insertNewestFirst(history []domain.PositionSample, sample domain.PositionSample) []domain.PositionSample {
	// samples mostly arrive in order, so scan from the newest end
	i := 0
	for i < len(history) && history[i].Timestamp.After(sample.Timestamp) {
		i++
	}
	history = append(history, domain.PositionSample{})
	copy(history[i+1:], history[i:])
	history[i] = sample
	return history
}
