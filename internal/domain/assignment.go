package domain

import "time"

// Assignment binds a driver and a vehicle to a route for a time window.
// The backing store guarantees at most one active assignment per vehicle
// at any instant; everything here consumes that as a precondition.
type Assignment struct {
	VehicleID VehicleID  `json:"bus_id"`
	DriverID  string     `json:"driver_id"`
	RouteID   string     `json:"route_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// ActiveAt reports whether the assignment window covers t
func (a Assignment) ActiveAt(t time.Time) bool {
	if t.Before(a.StartTime) {
		return false
	}
	return a.EndTime == nil || t.Before(*a.EndTime)
}
