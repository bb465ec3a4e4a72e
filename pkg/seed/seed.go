// Package seed loads the static transit network and driver roster from
// a yaml file and installs them into a directory. It is the fixture
// path for deployments without a live operations backend.
package seed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"unibus/internal/directory"
	"unibus/internal/domain"
)

// File is the on-disk seed layout. Times are RFC3339.
type File struct {
	Routes       []routeEntry      `yaml:"routes"`
	Stops        []stopEntry       `yaml:"stops"`
	Alerts       []alertEntry      `yaml:"alerts"`
	Assignments  []assignmentEntry `yaml:"assignments"`
	DriverTokens map[string]string `yaml:"driver_tokens"`
}

type routeEntry struct {
	ID      string   `yaml:"id"`
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Color   string   `yaml:"color"`
	StopIDs []string `yaml:"stop_ids"`
}

type stopEntry struct {
	ID        string  `yaml:"id"`
	Code      string  `yaml:"code"`
	Name      string  `yaml:"name"`
	Address   string  `yaml:"address"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type alertEntry struct {
	ID             string     `yaml:"id"`
	Title          string     `yaml:"title"`
	Message        string     `yaml:"message"`
	Severity       string     `yaml:"severity"`
	AffectedRoutes []string   `yaml:"affected_routes"`
	StartTime      time.Time  `yaml:"start_time"`
	EndTime        *time.Time `yaml:"end_time"`
}

type assignmentEntry struct {
	VehicleID string     `yaml:"bus_id"`
	DriverID  string     `yaml:"driver_id"`
	RouteID   string     `yaml:"route_id"`
	StartTime time.Time  `yaml:"start_time"`
	EndTime   *time.Time `yaml:"end_time"`
}

// Parse decodes a seed document and checks referential integrity.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	stopIDs := make(map[string]struct{}, len(f.Stops))
	for _, s := range f.Stops {
		if s.ID == "" {
			return fmt.Errorf("seed: stop with empty id")
		}
		if _, dup := stopIDs[s.ID]; dup {
			return fmt.Errorf("seed: duplicate stop id %q", s.ID)
		}
		stopIDs[s.ID] = struct{}{}
	}

	routeIDs := make(map[string]struct{}, len(f.Routes))
	for _, r := range f.Routes {
		if r.ID == "" {
			return fmt.Errorf("seed: route with empty id")
		}
		if _, dup := routeIDs[r.ID]; dup {
			return fmt.Errorf("seed: duplicate route id %q", r.ID)
		}
		routeIDs[r.ID] = struct{}{}
		for _, sid := range r.StopIDs {
			if _, ok := stopIDs[sid]; !ok {
				return fmt.Errorf("seed: route %q references unknown stop %q", r.ID, sid)
			}
		}
	}

	for _, a := range f.Assignments {
		if a.VehicleID == "" || a.DriverID == "" {
			return fmt.Errorf("seed: assignment missing vehicle or driver id")
		}
		if _, ok := routeIDs[a.RouteID]; !ok {
			return fmt.Errorf("seed: assignment for %q references unknown route %q", a.VehicleID, a.RouteID)
		}
	}

	return nil
}

// Load reads the seed file at path and installs it into d.
func Load(path string, d *directory.Directory) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	f.Apply(d)
	return f, nil
}

// Apply installs the seed contents into the directory.
func (f *File) Apply(d *directory.Directory) {
	routes := make([]domain.Route, 0, len(f.Routes))
	for _, r := range f.Routes {
		routes = append(routes, domain.Route{
			ID:      r.ID,
			Code:    r.Code,
			Name:    r.Name,
			Color:   r.Color,
			StopIDs: r.StopIDs,
		})
	}

	stops := make([]domain.Stop, 0, len(f.Stops))
	for _, s := range f.Stops {
		stops = append(stops, domain.Stop{
			ID:        s.ID,
			Code:      s.Code,
			Name:      s.Name,
			Address:   s.Address,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		})
	}

	alerts := make([]domain.ServiceAlert, 0, len(f.Alerts))
	for _, a := range f.Alerts {
		alerts = append(alerts, domain.ServiceAlert{
			ID:             a.ID,
			Title:          a.Title,
			Message:        a.Message,
			Severity:       domain.AlertSeverity(a.Severity),
			AffectedRoutes: a.AffectedRoutes,
			StartTime:      a.StartTime,
			EndTime:        a.EndTime,
		})
	}

	assignments := make([]domain.Assignment, 0, len(f.Assignments))
	for _, a := range f.Assignments {
		assignments = append(assignments, domain.Assignment{
			VehicleID: domain.VehicleID(a.VehicleID),
			DriverID:  a.DriverID,
			RouteID:   a.RouteID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		})
	}

	d.UpdateTransit(routes, stops, alerts)
	d.UpdateRoster(assignments, f.DriverTokens)
}
