package domain

import "time"

// VehicleID is the opaque, stable identifier of a tracked vehicle
type VehicleID string

// CrowdLevel is the coarse occupancy indicator reported by drivers
type CrowdLevel string

const (
	CrowdLow    CrowdLevel = "low"
	CrowdMedium CrowdLevel = "medium"
	CrowdHigh   CrowdLevel = "high"
)

// Valid reports whether the level is one of the known values
func (c CrowdLevel) Valid() bool {
	switch c {
	case CrowdLow, CrowdMedium, CrowdHigh:
		return true
	default:
		return false
	}
}

// PositionSample is a single driver-reported position. Samples are
// immutable once created; per-vehicle sequences are append-only,
// ordered by timestamp.
type PositionSample struct {
	VehicleID      VehicleID  `json:"bus_id"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	SpeedKmh       *float64   `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64   `json:"heading,omitempty"`
	AccuracyMeters *float64   `json:"accuracy_meters,omitempty"`
	CrowdLevel     CrowdLevel `json:"crowd_level"`
	CurrentStopID  string     `json:"current_stop_id,omitempty"`
	NextStopID     string     `json:"next_stop_id,omitempty"`
	ETAMinutes     *int       `json:"eta_minutes,omitempty"`
	OnRoute        bool       `json:"is_on_route"`
	Timestamp      time.Time  `json:"timestamp"`
}
