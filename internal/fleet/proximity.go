package fleet

import (
	"context"

	"unibus/internal/domain"
	"unibus/internal/geo"
)

// Near returns the active vehicles whose latest position lies within
// radiusKm of origin, with their great-circle distance attached.
// Vehicles that have never reported are excluded, not treated as far
// away. Results are recomputed per query and carry no ordering.
func (a *Aggregator) Near(ctx context.Context, origin domain.LatLng, radiusKm float64) []domain.ProximityResult {
	var result []domain.ProximityResult
	for _, assignment := range a.directory.ActiveAssignmentsNow() {
		if ctx.Err() != nil {
			break
		}

		sample, ok := a.store.Latest(assignment.VehicleID)
		if !ok {
			continue
		}

		distance := geo.DistanceKm(origin.Latitude, origin.Longitude, sample.Latitude, sample.Longitude)
		if distance > radiusKm {
			continue
		}

		result = append(result, domain.ProximityResult{
			StatusSummary: a.StatusOf(assignment),
			DistanceKm:    distance,
		})
	}
	return result
}
