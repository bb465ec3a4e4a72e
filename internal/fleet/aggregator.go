// Package fleet serves the rider-facing pull queries: per-vehicle
// status summaries and proximity search over the latest positions.
package fleet

import (
	"context"

	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/store"
)

const unknownRouteName = "Unknown Route"

// Aggregator joins latest samples with roster and route metadata
type Aggregator struct {
	store     *store.Store
	directory *directory.Directory
}

func NewAggregator(s *store.Store, d *directory.Directory) *Aggregator {
	return &Aggregator{store: s, directory: d}
}

// StatusOf summarizes one assignment. A vehicle that has not reported
// yet gets the documented defaults: medium crowd, on route, last
// updated at the assignment start, no location. That shape tells the
// rider "freshly assigned, not yet moving" rather than "missing".
func (a *Aggregator) StatusOf(assignment domain.Assignment) domain.StatusSummary {
	routeName, ok := a.directory.RouteName(assignment.RouteID)
	if !ok {
		routeName = unknownRouteName
	}

	summary := domain.StatusSummary{
		BusID:       assignment.VehicleID,
		RouteID:     assignment.RouteID,
		RouteName:   routeName,
		CrowdLevel:  domain.CrowdMedium,
		IsOnRoute:   true,
		LastUpdated: assignment.StartTime,
	}

	sample, ok := a.store.Latest(assignment.VehicleID)
	if !ok {
		return summary
	}

	summary.CurrentLocation = &domain.LatLng{Latitude: sample.Latitude, Longitude: sample.Longitude}
	summary.ETAMinutes = sample.ETAMinutes
	summary.CrowdLevel = sample.CrowdLevel
	summary.IsOnRoute = sample.OnRoute
	summary.LastUpdated = sample.Timestamp
	if sample.NextStopID != "" {
		if name, ok := a.directory.StopName(sample.NextStopID); ok {
			summary.NextStop = name
		}
	}
	return summary
}

// AllActiveStatuses returns one summary per vehicle currently on duty
func (a *Aggregator) AllActiveStatuses(ctx context.Context) []domain.StatusSummary {
	assignments := a.directory.ActiveAssignmentsNow()

	result := make([]domain.StatusSummary, 0, len(assignments))
	for _, assignment := range assignments {
		if ctx.Err() != nil {
			break
		}
		result = append(result, a.StatusOf(assignment))
	}
	return result
}
