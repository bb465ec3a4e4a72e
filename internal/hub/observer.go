// Package hub holds the live fan-out core: the registry of connected
// observers and the broadcaster that pushes encoded event frames to
// all of them with best-effort delivery.
package hub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrObserverClosed means the observer was shut down, by its own
	// disconnect or by a previous failed delivery.
	ErrObserverClosed = errors.New("observer closed")

	// ErrObserverBusy means the observer's send buffer is full. The
	// frame is dropped for this observer; delivery is at-most-once.
	ErrObserverBusy = errors.New("observer send buffer full")
)

// Observer is one live subscriber connection. Frames queue on a
// bounded channel drained by the connection's write loop; a full
// buffer counts as delivery failure, never as publisher backpressure.
type Observer struct {
	ID string

	mu     sync.Mutex
	frames chan []byte
	closed bool
}

func NewObserver(bufferSize int) *Observer {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Observer{
		ID:     uuid.New().String(),
		frames: make(chan []byte, bufferSize),
	}
}

// TrySend queues one frame without blocking. Frames sent through here
// reach the connection in send order.
func (o *Observer) TrySend(frame []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrObserverClosed
	}
	select {
	case o.frames <- frame:
		return nil
	default:
		return ErrObserverBusy
	}
}

// Frames exposes the queued frames for the connection write loop.
// The channel closes when the observer does.
func (o *Observer) Frames() <-chan []byte {
	return o.frames
}

// Close shuts the observer down. Safe to call more than once and
// safe against concurrent TrySend.
func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.frames)
}
