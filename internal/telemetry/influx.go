package telemetry

import (
	"context"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"unibus/internal/domain"
)

// InfluxSink writes one point per accepted sample and per broadcast,
// for offline analysis of fleet movement and fan-out health.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   zerolog.Logger
}

func NewInfluxSink(url, token, org, bucket string, logger zerolog.Logger) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		logger:   logger.With().Str("component", "influx_sink").Logger(),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing backend never
// blocks startup.
func NewInfluxSinkWithFallback(url, token, org, bucket string, logger zerolog.Logger) Sink {
	sink := NewInfluxSink(url, token, org, bucket, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.logger.Error().Err(err).Msg("influx health check failed, telemetry disabled")
		} else {
			sink.logger.Error().Str("status", string(health.Status)).Msg("influx unhealthy, telemetry disabled")
		}
		sink.client.Close()
		return NopSink{}
	}
	return sink
}

func (s *InfluxSink) RecordSample(sample domain.PositionSample) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := write.NewPointWithMeasurement("position_sample").
		AddTag("vehicle_id", string(sample.VehicleID)).
		AddTag("crowd_level", string(sample.CrowdLevel)).
		AddField("latitude", sample.Latitude).
		AddField("longitude", sample.Longitude).
		AddField("on_route", sample.OnRoute).
		SetTime(sample.Timestamp)
	if sample.SpeedKmh != nil {
		p.AddField("speed_kmh", *sample.SpeedKmh)
	}
	if sample.ETAMinutes != nil {
		p.AddField("eta_minutes", *sample.ETAMinutes)
	}

	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.logger.Warn().Err(err).Str("vehicle_id", string(sample.VehicleID)).Msg("sample point write failed")
	}
}

func (s *InfluxSink) RecordBroadcast(eventType string, receivers, failures int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := write.NewPointWithMeasurement("broadcast").
		AddTag("event_type", eventType).
		AddField("receivers", receivers).
		AddField("failures", failures).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.logger.Warn().Err(err).Msg("broadcast point write failed")
	}
}

func (s *InfluxSink) RecordObservers(count int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := write.NewPointWithMeasurement("observers").
		AddField("count", count).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.logger.Warn().Err(err).Msg("observer point write failed")
	}
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
