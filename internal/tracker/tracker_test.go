package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibus/internal/domain"
	"unibus/internal/samplelog"
	"unibus/internal/store"
)

type rosterStub struct{ vehicles map[domain.VehicleID]bool }

func (r rosterStub) ActiveAssignmentFor(id domain.VehicleID, at time.Time) (domain.Assignment, bool) {
	if r.vehicles[id] {
		return domain.Assignment{VehicleID: id, RouteID: "r1", StartTime: at.Add(-time.Hour)}, true
	}
	return domain.Assignment{}, false
}

func (r rosterStub) ActiveAssignmentsNow() []domain.Assignment {
	var result []domain.Assignment
	for id := range r.vehicles {
		result = append(result, domain.Assignment{VehicleID: id, RouteID: "r1"})
	}
	return result
}

type capturingPublisher struct{ events []domain.Event }

func (p *capturingPublisher) Publish(e domain.Event) { p.events = append(p.events, e) }

type brokenLog struct{ samplelog.Log }

func (brokenLog) Append(context.Context, domain.PositionSample) error {
	return errors.New("redis down")
}

func newTracker(t *testing.T, log samplelog.Log) (*Tracker, *capturingPublisher) {
	t.Helper()
	s := store.New(rosterStub{vehicles: map[domain.VehicleID]bool{"v1": true}}, log, 0, zerolog.Nop())
	pub := &capturingPublisher{}
	return New(s, pub, nil, nil, zerolog.Nop()), pub
}

func TestRecordBroadcastsAfterDurableAppend(t *testing.T) {
	trk, pub := newTracker(t, samplelog.NewMemoryLog(0))

	stored, err := trk.Record(context.Background(), domain.PositionSample{
		VehicleID: "v1",
		Latitude:  12.97,
		Longitude: 77.59,
	})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventLocationUpdate, pub.events[0].Type)
	assert.False(t, stored.Timestamp.IsZero(), "server must assign a timestamp")
	assert.Equal(t, domain.CrowdMedium, stored.CrowdLevel)
}

func TestRecordPersistenceFailureSuppressesBroadcast(t *testing.T) {
	trk, pub := newTracker(t, brokenLog{})

	_, err := trk.Record(context.Background(), domain.PositionSample{
		VehicleID: "v1",
		Latitude:  12.97,
		Longitude: 77.59,
	})

	var perr *store.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, pub.events, "no event may announce data that did not land")
}

func TestRecordUnassignedVehicleSuppressesBroadcast(t *testing.T) {
	trk, pub := newTracker(t, samplelog.NewMemoryLog(0))

	_, err := trk.Record(context.Background(), domain.PositionSample{
		VehicleID: "ghost",
		Latitude:  12.97,
		Longitude: 77.59,
	})

	require.ErrorIs(t, err, store.ErrNotAssigned)
	assert.Empty(t, pub.events)
}

func TestRecordKeepsCallerTimestampAndCrowd(t *testing.T) {
	trk, pub := newTracker(t, samplelog.NewMemoryLog(0))

	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	stored, err := trk.Record(context.Background(), domain.PositionSample{
		VehicleID:  "v1",
		Latitude:   12.97,
		Longitude:  77.59,
		CrowdLevel: domain.CrowdHigh,
		Timestamp:  ts,
	})
	require.NoError(t, err)

	assert.True(t, stored.Timestamp.Equal(ts))
	assert.Equal(t, domain.CrowdHigh, stored.CrowdLevel)
	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Timestamp.Equal(ts))
}

func TestInboundSampleValidation(t *testing.T) {
	lat, lon := 12.97, 77.59
	good := InboundSample{Latitude: &lat, Longitude: &lon, CrowdLevel: "high"}
	require.NoError(t, good.Validate())

	badLat := 97.0
	bad := InboundSample{Latitude: &badLat, Longitude: &lon}
	assert.Error(t, bad.Validate())

	missing := InboundSample{Latitude: &lat}
	assert.Error(t, missing.Validate())

	badCrowd := InboundSample{Latitude: &lat, Longitude: &lon, CrowdLevel: "packed"}
	assert.Error(t, badCrowd.Validate())
}

func TestInboundSampleDefaults(t *testing.T) {
	lat, lon := 12.97, 77.59
	in := InboundSample{Latitude: &lat, Longitude: &lon}

	s := in.ToSample("v1")
	assert.Equal(t, domain.VehicleID("v1"), s.VehicleID)
	assert.Equal(t, domain.CrowdMedium, s.CrowdLevel)
	assert.True(t, s.OnRoute)

	off := false
	in.OnRoute = &off
	in.CrowdLevel = "low"
	s = in.ToSample("v1")
	assert.False(t, s.OnRoute)
	assert.Equal(t, domain.CrowdLow, s.CrowdLevel)
}
