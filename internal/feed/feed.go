// Package feed exports the fleet's latest positions as a GTFS-RT
// VehiclePositions feed, so standard transit consumers can track the
// fleet without speaking the native websocket protocol.
package feed

import (
	"context"
	"sort"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"unibus/internal/directory"
	"unibus/internal/domain"
	"unibus/internal/store"
)

const gtfsRealtimeVersion = "2.0"

type Builder struct {
	store     *store.Store
	directory *directory.Directory
}

func NewBuilder(s *store.Store, d *directory.Directory) *Builder {
	return &Builder{store: s, directory: d}
}

// VehiclePositions builds a FULL_DATASET feed with one entity per
// active vehicle that has reported a position, in vehicle ID order.
func (b *Builder) VehiclePositions(ctx context.Context) *gtfs.FeedMessage {
	now := time.Now()
	latest := b.store.AllLatest(ctx)

	ids := make([]domain.VehicleID, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entities := make([]*gtfs.FeedEntity, 0, len(ids))
	for _, id := range ids {
		entities = append(entities, b.entity(id, latest[id]))
	}

	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: entities,
	}
}

// Marshal serializes the feed for the wire
func (b *Builder) Marshal(ctx context.Context) ([]byte, error) {
	return proto.Marshal(b.VehiclePositions(ctx))
}

func (b *Builder) entity(id domain.VehicleID, sample domain.PositionSample) *gtfs.FeedEntity {
	position := &gtfs.Position{
		Latitude:  proto.Float32(float32(sample.Latitude)),
		Longitude: proto.Float32(float32(sample.Longitude)),
	}
	if sample.HeadingDegrees != nil {
		position.Bearing = proto.Float32(float32(*sample.HeadingDegrees))
	}
	if sample.SpeedKmh != nil {
		// GTFS-RT wants meters per second
		position.Speed = proto.Float32(float32(*sample.SpeedKmh / 3.6))
	}

	vp := &gtfs.VehiclePosition{
		Vehicle:   &gtfs.VehicleDescriptor{Id: proto.String(string(id))},
		Position:  position,
		Timestamp: proto.Uint64(uint64(sample.Timestamp.Unix())),
	}
	if sample.NextStopID != "" {
		vp.StopId = proto.String(sample.NextStopID)
	}
	if assignment, ok := b.directory.ActiveAssignmentFor(id, sample.Timestamp); ok {
		vp.Trip = &gtfs.TripDescriptor{RouteId: proto.String(assignment.RouteID)}
	}

	return &gtfs.FeedEntity{
		Id:      proto.String(string(id)),
		Vehicle: vp,
	}
}
