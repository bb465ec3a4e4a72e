package feed

import (
	"context"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/samplelog"
	"unibus/internal/store"
)

func feedFixture(t *testing.T) (*Builder, *store.Store) {
	t.Helper()

	d := directory.New()
	d.UpdateTransit(
		[]domain.Route{{ID: "r1", Code: "R1", Name: "Campus Loop", StopIDs: []string{"s1", "s2"}}},
		[]domain.Stop{{ID: "s2", Name: "Library", Latitude: 12.98, Longitude: 77.6}},
		nil,
	)
	d.UpdateRoster([]domain.Assignment{
		{VehicleID: "v1", DriverID: "d1", RouteID: "r1", StartTime: time.Now().Add(-time.Hour)},
		{VehicleID: "v2", DriverID: "d2", RouteID: "r1", StartTime: time.Now().Add(-time.Hour)},
	}, nil)

	s := store.New(d, samplelog.NewMemoryLog(0), 0, zerolog.Nop())
	return NewBuilder(s, d), s
}

func TestVehiclePositionsEntityMapping(t *testing.T) {
	b, s := feedFixture(t)
	ctx := context.Background()

	speed := 36.0 // 10 m/s
	heading := 145.0
	ts := time.Now().Add(-time.Minute).Truncate(time.Second)
	require.NoError(t, s.Record(ctx, domain.PositionSample{
		VehicleID:      "v1",
		Latitude:       12.9716,
		Longitude:      77.5946,
		SpeedKmh:       &speed,
		HeadingDegrees: &heading,
		CrowdLevel:     domain.CrowdMedium,
		NextStopID:     "s2",
		OnRoute:        true,
		Timestamp:      ts,
	}))

	msg := b.VehiclePositions(ctx)

	require.NotNil(t, msg.Header)
	assert.Equal(t, "2.0", msg.Header.GetGtfsRealtimeVersion())
	assert.Equal(t, gtfs.FeedHeader_FULL_DATASET, msg.Header.GetIncrementality())

	require.Len(t, msg.Entity, 1, "silent vehicles must not appear")
	vp := msg.Entity[0].GetVehicle()
	require.NotNil(t, vp)
	assert.Equal(t, "v1", vp.GetVehicle().GetId())
	assert.InDelta(t, 12.9716, vp.GetPosition().GetLatitude(), 1e-4)
	assert.InDelta(t, 77.5946, vp.GetPosition().GetLongitude(), 1e-4)
	assert.InDelta(t, 10.0, vp.GetPosition().GetSpeed(), 1e-3)
	assert.InDelta(t, 145.0, vp.GetPosition().GetBearing(), 1e-3)
	assert.Equal(t, "s2", vp.GetStopId())
	assert.Equal(t, "r1", vp.GetTrip().GetRouteId())
	assert.Equal(t, uint64(ts.Unix()), vp.GetTimestamp())
}

func TestVehiclePositionsStableOrderAndRoundTrip(t *testing.T) {
	b, s := feedFixture(t)
	ctx := context.Background()

	for _, id := range []domain.VehicleID{"v2", "v1"} {
		require.NoError(t, s.Record(ctx, domain.PositionSample{
			VehicleID: id, Latitude: 12.97, Longitude: 77.59,
			CrowdLevel: domain.CrowdMedium, OnRoute: true, Timestamp: time.Now(),
		}))
	}

	data, err := b.Marshal(ctx)
	require.NoError(t, err)

	var decoded gtfs.FeedMessage
	require.NoError(t, proto.Unmarshal(data, &decoded))

	require.Len(t, decoded.Entity, 2)
	assert.Equal(t, "v1", decoded.Entity[0].GetId())
	assert.Equal(t, "v2", decoded.Entity[1].GetId())
}
