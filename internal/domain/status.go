package domain

import "time"

// LatLng is a geographic coordinate pair
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StatusSummary is the rider-facing view of one active vehicle: its
// latest sample joined with assignment and route metadata. A vehicle
// that has not reported yet carries the documented defaults instead
// (medium crowd, on route, last updated at assignment start).
type StatusSummary struct {
	BusID           VehicleID  `json:"bus_id"`
	RouteID         string     `json:"route_id"`
	RouteName       string     `json:"route_name"`
	CurrentLocation *LatLng    `json:"current_location"`
	NextStop        string     `json:"next_stop,omitempty"`
	ETAMinutes      *int       `json:"eta_minutes"`
	CrowdLevel      CrowdLevel `json:"crowd_level"`
	IsOnRoute       bool       `json:"is_on_route"`
	LastUpdated     time.Time  `json:"last_updated"`
}

// ProximityResult is a StatusSummary plus the great-circle distance to
// the query point. Derived per query, never cached.
type ProximityResult struct {
	StatusSummary
	DistanceKm float64 `json:"distance_km"`
}
