package tracker

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"unibus/internal/domain"
)

var validate = validator.New()

// InboundSample is the wire form of a driver position report, shared
// by the HTTP handler and the MQTT bridge. The vehicle ID comes from
// the request path or topic, the timestamp from the server clock.
type InboundSample struct {
	Latitude       *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	SpeedKmh       *float64 `json:"speed_kmh" validate:"omitempty,gte=0"`
	HeadingDegrees *float64 `json:"heading" validate:"omitempty,gte=0,lt=360"`
	AccuracyMeters *float64 `json:"accuracy_meters" validate:"omitempty,gte=0"`
	CrowdLevel     string   `json:"crowd_level" validate:"omitempty,oneof=low medium high"`
	CurrentStopID  string   `json:"current_stop_id"`
	NextStopID     string   `json:"next_stop_id"`
	ETAMinutes     *int     `json:"eta_minutes" validate:"omitempty,gte=0"`
	OnRoute        *bool    `json:"is_on_route"`
}

// Validate checks ranges and enums on the wire payload
func (in *InboundSample) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid position report: %w", err)
	}
	return nil
}

// ToSample builds the domain sample for a vehicle. Absent fields take
// the documented defaults: medium crowd and on-route.
func (in *InboundSample) ToSample(id domain.VehicleID) domain.PositionSample {
	crowd := domain.CrowdLevel(in.CrowdLevel)
	if !crowd.Valid() {
		crowd = domain.CrowdMedium
	}
	onRoute := true
	if in.OnRoute != nil {
		onRoute = *in.OnRoute
	}

	return domain.PositionSample{
		VehicleID:      id,
		Latitude:       *in.Latitude,
		Longitude:      *in.Longitude,
		SpeedKmh:       in.SpeedKmh,
		HeadingDegrees: in.HeadingDegrees,
		AccuracyMeters: in.AccuracyMeters,
		CrowdLevel:     crowd,
		CurrentStopID:  in.CurrentStopID,
		NextStopID:     in.NextStopID,
		ETAMinutes:     in.ETAMinutes,
		OnRoute:        onRoute,
	}
}
