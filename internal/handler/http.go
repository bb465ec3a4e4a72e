package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/fleet"
	"unibus/internal/planner"
	"unibus/internal/store"
	"unibus/internal/tracker"
)

// driverTokenHeader carries the driver credential on position reports
const driverTokenHeader = "X-Driver-Token"

const (
	defaultTrackHours = 24
	maxTrackHours     = 168
)

type HTTPHandler struct {
	tracker   *tracker.Tracker
	store     *store.Store
	fleet     *fleet.Aggregator
	directory *directory.Directory
	planner   *planner.Planner

	defaultRadiusKm float64
	maxRadiusKm     float64
	logger          zerolog.Logger
}

func NewHTTPHandler(trk *tracker.Tracker, s *store.Store, agg *fleet.Aggregator, d *directory.Directory, p *planner.Planner, defaultRadiusKm, maxRadiusKm float64, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		tracker:         trk,
		store:           s,
		fleet:           agg,
		directory:       d,
		planner:         p,
		defaultRadiusKm: defaultRadiusKm,
		maxRadiusKm:     maxRadiusKm,
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// ReportPosition accepts a driver position report. The caller proves
// who they are with the driver token; the pipeline checks the roster
// again before anything is stored or broadcast.
func (h *HTTPHandler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	vehicleID := domain.VehicleID(r.PathValue("id"))
	if vehicleID == "" {
		respondError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	driverID, ok := h.directory.DriverForToken(r.Header.Get(driverTokenHeader))
	if !ok {
		respondError(w, http.StatusUnauthorized, "unknown driver token")
		return
	}
	assignment, ok := h.directory.ActiveAssignmentFor(vehicleID, time.Now())
	if !ok || assignment.DriverID != driverID {
		respondError(w, http.StatusForbidden, "you are not assigned to this vehicle")
		return
	}

	var in tracker.InboundSample
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.tracker.Record(r.Context(), in.ToSample(vehicleID))
	if err != nil {
		h.respondRecordError(w, vehicleID, err)
		return
	}

	respondJSON(w, http.StatusCreated, stored)
}

func (h *HTTPHandler) respondRecordError(w http.ResponseWriter, vehicleID domain.VehicleID, err error) {
	var perr *store.PersistenceError
	switch {
	case errors.Is(err, store.ErrNotAssigned):
		respondError(w, http.StatusForbidden, "vehicle has no active assignment")
	case errors.As(err, &perr):
		h.logger.Error().Err(err).Str("vehicle_id", string(vehicleID)).Msg("sample not persisted")
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, "sample could not be stored, retry")
	default:
		h.logger.Error().Err(err).Str("vehicle_id", string(vehicleID)).Msg("record failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// LatestPosition returns the vehicle's most recent sample
func (h *HTTPHandler) LatestPosition(w http.ResponseWriter, r *http.Request) {
	vehicleID := domain.VehicleID(r.PathValue("id"))
	if vehicleID == "" {
		respondError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	sample, ok := h.store.Latest(vehicleID)
	if !ok {
		respondError(w, http.StatusNotFound, "vehicle has not reported yet")
		return
	}
	respondJSON(w, http.StatusOK, sample)
}

type TrackResponse struct {
	Samples    []domain.PositionSample `json:"samples"`
	Count      int                     `json:"count"`
	ServerTime time.Time               `json:"serverTime"`
}

// Track returns the vehicle's recent history, newest first
func (h *HTTPHandler) Track(w http.ResponseWriter, r *http.Request) {
	vehicleID := domain.VehicleID(r.PathValue("id"))
	if vehicleID == "" {
		respondError(w, http.StatusBadRequest, "missing vehicle id")
		return
	}

	hours := defaultTrackHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxTrackHours {
			respondError(w, http.StatusBadRequest, "invalid hours parameter: must be 1-168")
			return
		}
		hours = parsed
	}

	samples := h.store.History(vehicleID, time.Now().Add(-time.Duration(hours)*time.Hour))
	if samples == nil {
		samples = []domain.PositionSample{}
	}
	respondJSON(w, http.StatusOK, TrackResponse{
		Samples:    samples,
		Count:      len(samples),
		ServerTime: time.Now(),
	})
}

type FleetStatusResponse struct {
	Statuses   []domain.StatusSummary `json:"statuses"`
	Count      int                    `json:"count"`
	ServerTime time.Time              `json:"serverTime"`
}

// FleetStatus returns one summary per active assignment
func (h *HTTPHandler) FleetStatus(w http.ResponseWriter, r *http.Request) {
	statuses := h.fleet.AllActiveStatuses(r.Context())
	respondJSON(w, http.StatusOK, FleetStatusResponse{
		Statuses:   statuses,
		Count:      len(statuses),
		ServerTime: time.Now(),
	})
}

type NearbyResponse struct {
	Vehicles   []domain.ProximityResult `json:"vehicles"`
	Count      int                      `json:"count"`
	RadiusKm   float64                  `json:"radiusKm"`
	ServerTime time.Time                `json:"serverTime"`
}

// Nearby returns the active vehicles within radius_km of lat/lon
func (h *HTTPHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		respondError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}

	radius := h.defaultRadiusKm
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius < 0.1 || radius > h.maxRadiusKm {
			respondError(w, http.StatusBadRequest, "invalid radius_km parameter")
			return
		}
	}

	vehicles := h.fleet.Near(r.Context(), domain.LatLng{Latitude: lat, Longitude: lon}, radius)
	if vehicles == nil {
		vehicles = []domain.ProximityResult{}
	}
	respondJSON(w, http.StatusOK, NearbyResponse{
		Vehicles:   vehicles,
		Count:      len(vehicles),
		RadiusKm:   radius,
		ServerTime: time.Now(),
	})
}

// Plan answers a trip planning request with the canned heuristic
func (h *HTTPHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req planner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Origin == "" || req.Destination == "" {
		respondError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}

	resp, err := h.planner.Plan(req)
	if err != nil {
		if errors.Is(err, planner.ErrNoStops) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
