package domain

import (
	"encoding/json"
	"time"
)

// EventType discriminates broadcast frames
type EventType string

const (
	EventLocationUpdate EventType = "location_update"
	EventAlert          EventType = "alert"
	EventNotification   EventType = "notification"
)

// Event is a single broadcast frame, already shaped for the wire.
// Events are transient: the originating sample is durably stored
// before the event is built, and the event itself is never persisted.
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"-"`
}

// Encode serializes the frame once for fan-out
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// locationUpdateData is the wire body of a location_update frame.
// Field names and the set of fields are pinned; mobile clients parse
// them as-is, so eta_minutes is emitted even when null.
type locationUpdateData struct {
	BusID      VehicleID  `json:"bus_id"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	ETAMinutes *int       `json:"eta_minutes"`
	CrowdLevel CrowdLevel `json:"crowd_level"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewLocationUpdate builds the location_update frame for a stored sample
func NewLocationUpdate(s PositionSample) Event {
	return Event{
		Type:      EventLocationUpdate,
		Timestamp: s.Timestamp,
		Data: locationUpdateData{
			BusID:      s.VehicleID,
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			ETAMinutes: s.ETAMinutes,
			CrowdLevel: s.CrowdLevel,
			Timestamp:  s.Timestamp,
		},
	}
}

// alertData is the wire body of an alert frame
type alertData struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	Severity       AlertSeverity `json:"severity"`
	AffectedRoutes []string      `json:"affected_routes"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewAlert builds the alert frame for a service disruption notice
func NewAlert(a ServiceAlert, at time.Time) Event {
	routes := a.AffectedRoutes
	if routes == nil {
		routes = []string{}
	}
	return Event{
		Type:      EventAlert,
		Timestamp: at,
		Data: alertData{
			ID:             a.ID,
			Title:          a.Title,
			Message:        a.Message,
			Severity:       a.Severity,
			AffectedRoutes: routes,
			Timestamp:      at,
		},
	}
}

// notificationData is the wire body of a notification frame
type notificationData struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotification builds a free-form operator notification frame
func NewNotification(title, message string, at time.Time) Event {
	return Event{
		Type:      EventNotification,
		Timestamp: at,
		Data: notificationData{
			Title:     title,
			Message:   message,
			Timestamp: at,
		},
	}
}
