package domain

import "time"

// Route is a transit route definition
type Route struct {
	ID      string   `json:"id"`
	Code    string   `json:"route_code"`
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	StopIDs []string `json:"stop_ids"` // ordered by travel sequence
}

// Stop is a fixed boarding point on one or more routes
type Stop struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertSeverity grades service alerts
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// ServiceAlert is an operator-issued disruption notice
type ServiceAlert struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	Severity       AlertSeverity `json:"severity"`
	AffectedRoutes []string      `json:"affected_routes,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
}

// ActiveAt reports whether the alert window covers t
func (a ServiceAlert) ActiveAt(t time.Time) bool {
	if t.Before(a.StartTime) {
		return false
	}
	return a.EndTime == nil || t.Before(*a.EndTime)
}
