package samplelog

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"unibus/internal/domain"
)

// TestRedisLogIntegration exercises append, trim and replay against a
// real Redis instance.
func TestRedisLogIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	log, err := NewRedisLog(fmt.Sprintf("%s:%s", host, port.Port()), "", 0, 3, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer log.Close()

	if err := log.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	base := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := sampleAt("v1", base.Add(time.Duration(i)*time.Minute))
		if err := log.Append(ctx, s); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	if err := log.Append(ctx, sampleAt("v2", base)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	byVehicle := make(map[domain.VehicleID][]domain.PositionSample)
	if err := log.Replay(ctx, func(s domain.PositionSample) error {
		byVehicle[s.VehicleID] = append(byVehicle[s.VehicleID], s)
		return nil
	}); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	// per-vehicle cap of 3 keeps only the newest entries for v1
	if got := len(byVehicle["v1"]); got != 3 {
		t.Fatalf("expected 3 retained samples for v1, got %d", got)
	}
	if got := byVehicle["v1"][0].Timestamp; !got.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected oldest retained sample at %v, got %v", base.Add(2*time.Minute), got)
	}
	if got := len(byVehicle["v2"]); got != 1 {
		t.Fatalf("expected 1 sample for v2, got %d", got)
	}
}
