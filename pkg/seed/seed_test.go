package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibus/internal/directory"
	"unibus/internal/domain"
)

const fixture = `
routes:
  - id: r1
    code: "1A"
    name: North Loop
    color: "#1E88E5"
    stop_ids: [s1, s2]
stops:
  - id: s1
    code: MG
    name: Main Gate
    latitude: 12.9720
    longitude: 77.5940
  - id: s2
    code: LB
    name: Library
    latitude: 12.9760
    longitude: 77.5980
alerts:
  - id: a1
    title: Detour on North Loop
    message: Roadwork near the library until further notice.
    severity: medium
    affected_routes: [r1]
    start_time: 2026-01-01T00:00:00Z
assignments:
  - bus_id: v1
    driver_id: d1
    route_id: r1
    start_time: 2026-01-01T06:00:00Z
driver_tokens:
  tok-d1: d1
`

func TestParseAndApply(t *testing.T) {
	f, err := Parse([]byte(fixture))
	require.NoError(t, err)

	d := directory.New()
	f.Apply(d)

	route, ok := d.Route("r1")
	require.True(t, ok)
	assert.Equal(t, "North Loop", route.Name)
	assert.Equal(t, []string{"s1", "s2"}, route.StopIDs)

	stop, ok := d.Stop("s2")
	require.True(t, ok)
	assert.Equal(t, "Library", stop.Name)

	at := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	a, ok := d.ActiveAssignmentFor(domain.VehicleID("v1"), at)
	require.True(t, ok)
	assert.Equal(t, "r1", a.RouteID)

	driverID, ok := d.DriverForToken("tok-d1")
	require.True(t, ok)
	assert.Equal(t, "d1", driverID)

	assert.Len(t, d.ActiveAlerts(at), 1)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	d := directory.New()
	f, err := Load(path, d)
	require.NoError(t, err)
	assert.Len(t, f.Routes, 1)
	assert.True(t, d.GetStats().IsLoaded)
}

func TestParseRejectsUnknownStopReference(t *testing.T) {
	bad := `
routes:
  - id: r1
    name: Loop
    stop_ids: [ghost]
stops:
  - id: s1
    name: Main Gate
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stop")
}

func TestParseRejectsDanglingAssignment(t *testing.T) {
	bad := `
assignments:
  - bus_id: v1
    driver_id: d1
    route_id: nope
    start_time: 2026-01-01T06:00:00Z
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown route")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("routes: ["))
	assert.Error(t, err)
}
