// Package directory serves the slow-moving operational data the
// tracking core depends on: routes, stops, service alerts, the duty
// roster and driver credentials. It is seeded at boot and swapped
// wholesale on reload.
package directory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"unibus/internal/domain"
)

type Directory struct {
	mu         sync.RWMutex
	routes     map[string]*domain.Route
	stops      map[string]*domain.Stop
	stopRoutes map[string][]string
	alerts     map[string]*domain.ServiceAlert

	assignments map[domain.VehicleID][]domain.Assignment
	driverByTok map[string]string

	lastUpdate time.Time
}

func New() *Directory {
	return &Directory{
		routes:      make(map[string]*domain.Route),
		stops:       make(map[string]*domain.Stop),
		stopRoutes:  make(map[string][]string),
		alerts:      make(map[string]*domain.ServiceAlert),
		assignments: make(map[domain.VehicleID][]domain.Assignment),
		driverByTok: make(map[string]string),
	}
}

// UpdateTransit replaces all route, stop and alert metadata and
// rebuilds the stop-to-routes index.
func (d *Directory) UpdateTransit(routes []domain.Route, stops []domain.Stop, alerts []domain.ServiceAlert) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.routes = make(map[string]*domain.Route, len(routes))
	d.stopRoutes = make(map[string][]string)
	for i := range routes {
		r := routes[i]
		d.routes[r.ID] = &r
		for _, stopID := range r.StopIDs {
			d.stopRoutes[stopID] = append(d.stopRoutes[stopID], r.ID)
		}
	}

	d.stops = make(map[string]*domain.Stop, len(stops))
	for i := range stops {
		s := stops[i]
		d.stops[s.ID] = &s
	}

	d.alerts = make(map[string]*domain.ServiceAlert, len(alerts))
	for i := range alerts {
		a := alerts[i]
		d.alerts[a.ID] = &a
	}

	d.lastUpdate = time.Now()
}

// UpdateRoster replaces the duty roster and driver token table.
// The roster must not contain overlapping windows for one vehicle;
// the operations store enforces that upstream.
func (d *Directory) UpdateRoster(assignments []domain.Assignment, driverTokens map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.assignments = make(map[domain.VehicleID][]domain.Assignment)
	for _, a := range assignments {
		d.assignments[a.VehicleID] = append(d.assignments[a.VehicleID], a)
	}

	d.driverByTok = make(map[string]string, len(driverTokens))
	for tok, driverID := range driverTokens {
		d.driverByTok[tok] = driverID
	}

	d.lastUpdate = time.Now()
}

func (d *Directory) Route(id string) (domain.Route, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.routes[id]
	if !ok {
		return domain.Route{}, false
	}
	return copyRoute(r), true
}

func (d *Directory) RouteName(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.routes[id]
	if !ok {
		return "", false
	}
	return r.Name, true
}

func (d *Directory) Routes() []domain.Route {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Route, 0, len(d.routes))
	for _, r := range d.routes {
		result = append(result, copyRoute(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (d *Directory) Stop(id string) (domain.Stop, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.stops[id]
	if !ok {
		return domain.Stop{}, false
	}
	return *s, true
}

func (d *Directory) StopName(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.stops[id]
	if !ok {
		return "", false
	}
	return s.Name, true
}

func (d *Directory) Stops() []domain.Stop {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Stop, 0, len(d.stops))
	for _, s := range d.stops {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// SearchStops returns up to limit stops whose name or address contains
// q, case-insensitive, in stable ID order.
func (d *Directory) SearchStops(q string, limit int) []domain.Stop {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" || limit <= 0 {
		return nil
	}

	matches := d.Stops()
	result := make([]domain.Stop, 0, limit)
	for _, s := range matches {
		if strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.Address), needle) {
			result = append(result, s)
			if len(result) == limit {
				break
			}
		}
	}
	return result
}

// RoutesServing lists the IDs of routes that call at the stop
func (d *Directory) RoutesServing(stopID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids, ok := d.stopRoutes[stopID]
	if !ok {
		return nil
	}
	result := make([]string, len(ids))
	copy(result, ids)
	return result
}

// ActiveAlerts returns the alerts whose window covers t
func (d *Directory) ActiveAlerts(t time.Time) []domain.ServiceAlert {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []domain.ServiceAlert
	for _, a := range d.alerts {
		if a.ActiveAt(t) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ActiveAssignmentFor returns the assignment whose window covers at,
// if the vehicle has one.
func (d *Directory) ActiveAssignmentFor(id domain.VehicleID, at time.Time) (domain.Assignment, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.assignments[id] {
		if a.ActiveAt(at) {
			return a, true
		}
	}
	return domain.Assignment{}, false
}

// ActiveAssignmentsNow returns one assignment per vehicle currently on duty
func (d *Directory) ActiveAssignmentsNow() []domain.Assignment {
	now := time.Now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []domain.Assignment
	for _, windows := range d.assignments {
		for _, a := range windows {
			if a.ActiveAt(now) {
				result = append(result, a)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VehicleID < result[j].VehicleID })
	return result
}

// ActiveVehicleOnRoute returns a vehicle currently on duty on the
// route, lowest vehicle ID first for determinism.
func (d *Directory) ActiveVehicleOnRoute(routeID string) (domain.VehicleID, bool) {
	now := time.Now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var best domain.VehicleID
	for _, windows := range d.assignments {
		for _, a := range windows {
			if a.RouteID == routeID && a.ActiveAt(now) {
				if best == "" || a.VehicleID < best {
					best = a.VehicleID
				}
				break
			}
		}
	}
	return best, best != ""
}

// DriverForToken resolves a driver credential to a driver ID
func (d *Directory) DriverForToken(token string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	driverID, ok := d.driverByTok[token]
	return driverID, ok
}

type Stats struct {
	RoutesCount      int       `json:"routes_count"`
	StopsCount       int       `json:"stops_count"`
	AlertsCount      int       `json:"alerts_count"`
	AssignmentsCount int       `json:"assignments_count"`
	LastUpdate       time.Time `json:"last_update"`
	IsLoaded         bool      `json:"is_loaded"`
}

func (d *Directory) GetStats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	for _, windows := range d.assignments {
		count += len(windows)
	}
	return Stats{
		RoutesCount:      len(d.routes),
		StopsCount:       len(d.stops),
		AlertsCount:      len(d.alerts),
		AssignmentsCount: count,
		LastUpdate:       d.lastUpdate,
		IsLoaded:         !d.lastUpdate.IsZero(),
	}
}

func copyRoute(r *domain.Route) domain.Route {
	out := *r
	out.StopIDs = make([]string, len(r.StopIDs))
	copy(out.StopIDs, r.StopIDs)
	return out
}
