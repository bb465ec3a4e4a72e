package handler

import (
	"net/http"
	"time"

	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/store"
)

// BootstrapHandler serves the denormalized startup payload the mobile
// client renders before any live event arrives. Key casing and the
// default values match what the client already expects.
type BootstrapHandler struct {
	store      *store.Store
	directory  *directory.Directory
	campus     domain.LatLng
	defaultETA int
}

func NewBootstrapHandler(s *store.Store, d *directory.Directory, campus domain.LatLng) *BootstrapHandler {
	return &BootstrapHandler{store: s, directory: d, campus: campus, defaultETA: 5}
}

type bootstrapBus struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	CurrentStop string     `json:"currentStop"`
	NextStop    string     `json:"nextStop"`
	ETA         int        `json:"eta"`
	CrowdLevel  string     `json:"crowdLevel"`
	Coordinates [2]float64 `json:"coordinates"`
}

type bootstrapRoute struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
	Buses []bootstrapBus `json:"buses"`
}

type bootstrapStop struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Coordinates [2]float64 `json:"coordinates"`
	Routes      []string   `json:"routes"`
}

type bootstrapAlert struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Severity       string   `json:"severity"`
	AffectedRoutes []string `json:"affectedRoutes"`
}

type bootstrapResponse struct {
	BusRoutes     []bootstrapRoute `json:"busRoutes"`
	BusStops      []bootstrapStop  `json:"busStops"`
	ServiceAlerts []bootstrapAlert `json:"serviceAlerts"`
}

func (h *BootstrapHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	assignmentsByRoute := make(map[string][]domain.Assignment)
	for _, a := range h.directory.ActiveAssignmentsNow() {
		assignmentsByRoute[a.RouteID] = append(assignmentsByRoute[a.RouteID], a)
	}

	routes := h.directory.Routes()
	routesPayload := make([]bootstrapRoute, 0, len(routes))
	for _, route := range routes {
		assignments := assignmentsByRoute[route.ID]
		buses := make([]bootstrapBus, 0, len(assignments))
		for _, a := range assignments {
			buses = append(buses, h.busPayload(a))
		}
		routesPayload = append(routesPayload, bootstrapRoute{
			ID:    route.Code,
			Name:  route.Name,
			Color: route.Color,
			Buses: buses,
		})
	}

	stops := h.directory.Stops()
	stopsPayload := make([]bootstrapStop, 0, len(stops))
	for _, stop := range stops {
		routeIDs := h.directory.RoutesServing(stop.ID)
		if routeIDs == nil {
			routeIDs = []string{}
		}
		stopsPayload = append(stopsPayload, bootstrapStop{
			ID:          stop.ID,
			Name:        stop.Name,
			Address:     stop.Address,
			Coordinates: [2]float64{stop.Latitude, stop.Longitude},
			Routes:      routeIDs,
		})
	}

	alerts := h.directory.ActiveAlerts(now)
	alertsPayload := make([]bootstrapAlert, 0, len(alerts))
	for _, alert := range alerts {
		affected := alert.AffectedRoutes
		if affected == nil {
			affected = []string{}
		}
		alertsPayload = append(alertsPayload, bootstrapAlert{
			ID:             alert.ID,
			Title:          alert.Title,
			Message:        alert.Message,
			Severity:       string(alert.Severity),
			AffectedRoutes: affected,
		})
	}

	respondJSON(w, http.StatusOK, bootstrapResponse{
		BusRoutes:     routesPayload,
		BusStops:      stopsPayload,
		ServiceAlerts: alertsPayload,
	})
}

// busPayload renders one assigned vehicle with fallbacks for the
// not-yet-reporting case: the campus center as coordinates and a
// five minute ETA.
func (h *BootstrapHandler) busPayload(a domain.Assignment) bootstrapBus {
	bus := bootstrapBus{
		ID:          string(a.VehicleID),
		Number:      string(a.VehicleID),
		ETA:         h.defaultETA,
		CrowdLevel:  string(domain.CrowdMedium),
		Coordinates: [2]float64{h.campus.Latitude, h.campus.Longitude},
	}

	latest, ok := h.store.Latest(a.VehicleID)
	if !ok {
		return bus
	}

	bus.CrowdLevel = string(latest.CrowdLevel)
	bus.Coordinates = [2]float64{latest.Latitude, latest.Longitude}
	if latest.ETAMinutes != nil {
		bus.ETA = *latest.ETAMinutes
	}
	if name, ok := h.directory.StopName(latest.CurrentStopID); ok {
		bus.CurrentStop = name
	}
	if name, ok := h.directory.StopName(latest.NextStopID); ok {
		bus.NextStop = name
	}
	return bus
}
