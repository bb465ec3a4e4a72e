package samplelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibus/internal/domain"
)

func sampleAt(id domain.VehicleID, ts time.Time) domain.PositionSample {
	return domain.PositionSample{
		VehicleID:  id,
		Latitude:   12.97,
		Longitude:  77.59,
		CrowdLevel: domain.CrowdMedium,
		OnRoute:    true,
		Timestamp:  ts,
	}
}

func TestMemoryLogAppendAndReplay(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(0)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(ctx, sampleAt("v1", base.Add(time.Duration(i)*time.Second))))
	}
	assert.Equal(t, 3, l.Len())

	var seen []time.Time
	err := l.Replay(ctx, func(s domain.PositionSample) error {
		seen = append(seen, s.Timestamp)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.True(t, seen[0].Before(seen[1]) && seen[1].Before(seen[2]), "replay must be oldest first")
}

func TestMemoryLogCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(2)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(ctx, sampleAt("v1", base.Add(time.Duration(i)*time.Second))))
	}
	assert.Equal(t, 2, l.Len())

	var first domain.PositionSample
	_ = l.Replay(ctx, func(s domain.PositionSample) error {
		first = s
		return errors.New("stop")
	})
	assert.Equal(t, base.Add(3*time.Second), first.Timestamp)
}

func TestMemoryLogReplayStopsOnError(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(0)
	require.NoError(t, l.Append(ctx, sampleAt("v1", time.Now())))
	require.NoError(t, l.Append(ctx, sampleAt("v1", time.Now())))

	boom := errors.New("boom")
	calls := 0
	err := l.Replay(ctx, func(domain.PositionSample) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
