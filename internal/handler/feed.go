package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"unibus/internal/feed"
)

// FeedHandler serves the GTFS-RT VehiclePositions export
type FeedHandler struct {
	builder *feed.Builder
	logger  zerolog.Logger
}

func NewFeedHandler(b *feed.Builder, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{builder: b, logger: logger.With().Str("component", "gtfsrt").Logger()}
}

func (h *FeedHandler) VehiclePositions(w http.ResponseWriter, r *http.Request) {
	data, err := h.builder.Marshal(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("feed marshal failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
