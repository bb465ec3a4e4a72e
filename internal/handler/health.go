package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"unibus/internal/directory"
	"unibus/internal/hub"
	"unibus/internal/store"
)

type HealthHandler struct {
	directory *directory.Directory
	store     *store.Store
	registry  *hub.Registry
}

func NewHealthHandler(d *directory.Directory, s *store.Store, r *hub.Registry) *HealthHandler {
	return &HealthHandler{
		directory: d,
		store:     s,
		registry:  r,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready         bool      `json:"ready"`
	VehicleCount  int       `json:"vehicleCount"`
	ObserverCount int       `json:"observerCount"`
	ServerTime    time.Time `json:"serverTime"`
}

// Readyz reports ready once the directory holds a dataset. Vehicle
// and observer counts are informational.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.directory.GetStats().IsLoaded
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:         ready,
		VehicleCount:  h.store.VehicleCount(),
		ObserverCount: h.registry.Len(),
		ServerTime:    time.Now(),
	})
}
