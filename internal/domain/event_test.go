package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationUpdateWireFormat(t *testing.T) {
	eta := 7
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	sample := PositionSample{
		VehicleID:  "bus-42",
		Latitude:   12.9716,
		Longitude:  77.5946,
		CrowdLevel: CrowdHigh,
		ETAMinutes: &eta,
		OnRoute:    true,
		Timestamp:  ts,
	}

	raw, err := NewLocationUpdate(sample).Encode()
	require.NoError(t, err)

	var frame struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))

	assert.Equal(t, "location_update", frame.Type)
	assert.Equal(t, "bus-42", frame.Data["bus_id"])
	assert.Equal(t, 12.9716, frame.Data["latitude"])
	assert.Equal(t, 77.5946, frame.Data["longitude"])
	assert.Equal(t, float64(7), frame.Data["eta_minutes"])
	assert.Equal(t, "high", frame.Data["crowd_level"])
	assert.Equal(t, "2025-03-14T09:26:53Z", frame.Data["timestamp"])

	keys := make([]string, 0, len(frame.Data))
	for k := range frame.Data {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"bus_id", "latitude", "longitude", "eta_minutes", "crowd_level", "timestamp"}, keys)
}

func TestNewLocationUpdateKeepsNullETAOnWire(t *testing.T) {
	sample := PositionSample{
		VehicleID:  "bus-7",
		Latitude:   1,
		Longitude:  2,
		CrowdLevel: CrowdMedium,
		Timestamp:  time.Now().UTC(),
	}

	raw, err := NewLocationUpdate(sample).Encode()
	require.NoError(t, err)

	var frame struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))

	v, ok := frame.Data["eta_minutes"]
	require.True(t, ok, "eta_minutes must stay on the wire when unknown")
	assert.Equal(t, "null", string(v))
}

func TestNewAlertWireFormat(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := ServiceAlert{
		ID:             "alert-1",
		Title:          "Road closure",
		Message:        "Main gate closed until noon",
		Severity:       SeverityHigh,
		AffectedRoutes: []string{"r1", "r2"},
		StartTime:      at,
	}

	raw, err := NewAlert(alert, at).Encode()
	require.NoError(t, err)

	var frame struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))

	assert.Equal(t, "alert", frame.Type)
	assert.Equal(t, "alert-1", frame.Data["id"])
	assert.Equal(t, "high", frame.Data["severity"])
	assert.Equal(t, []any{"r1", "r2"}, frame.Data["affected_routes"])
}

func TestNewAlertEmptyRoutesEncodesAsArray(t *testing.T) {
	at := time.Now().UTC()
	raw, err := NewAlert(ServiceAlert{ID: "a", Severity: SeverityLow, StartTime: at}, at).Encode()
	require.NoError(t, err)

	var frame struct {
		Data struct {
			AffectedRoutes json.RawMessage `json:"affected_routes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, "[]", string(frame.Data.AffectedRoutes))
}
