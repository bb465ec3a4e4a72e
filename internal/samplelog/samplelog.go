// Package samplelog persists the append-only stream of position
// samples. The tracking store treats it as the durability boundary:
// a sample is acknowledged only after the log has accepted it.
package samplelog

import (
	"context"

	"unibus/internal/domain"
)

// Log is the durable sink for position samples
type Log interface {
	// Append stores one sample. An error means the sample did not
	// durably land and must not be broadcast.
	Append(ctx context.Context, s domain.PositionSample) error

	// Replay streams retained samples back, oldest first per vehicle.
	// Cross-vehicle order is unspecified.
	Replay(ctx context.Context, fn func(domain.PositionSample) error) error

	// Ping reports whether the log is reachable
	Ping(ctx context.Context) error

	Close() error
}
