package hub

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	o := NewObserver(4)

	h1 := r.Register(o)
	h2 := r.Register(o)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, r.Len())
}

func TestUnregisterUnknownHandleIsNoOp(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	o := NewObserver(4)
	handle := r.Register(o)

	r.Unregister("no-such-handle")
	assert.Equal(t, 1, r.Len())

	r.Unregister(handle)
	r.Unregister(handle)
	assert.Equal(t, 0, r.Len())
}

func TestUnregisterClosesObserver(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	o := NewObserver(4)
	handle := r.Register(o)

	r.Unregister(handle)

	require.ErrorIs(t, o.TrySend([]byte("x")), ErrObserverClosed)
	_, open := <-o.Frames()
	assert.False(t, open, "frames channel must be closed")
}

func TestSnapshotUnaffectedByLaterMutation(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a := NewObserver(4)
	b := NewObserver(4)
	r.Register(a)
	r.Register(b)

	snap := r.Snapshot()
	r.Unregister(a.ID)
	r.Register(NewObserver(4))

	assert.Len(t, snap, 2)
	assert.Equal(t, 2, r.Len())
}

func TestDrainClosesEverything(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	observers := make([]*Observer, 5)
	for i := range observers {
		observers[i] = NewObserver(4)
		r.Register(observers[i])
	}

	r.Drain()

	assert.Equal(t, 0, r.Len())
	for _, o := range observers {
		assert.ErrorIs(t, o.TrySend([]byte("x")), ErrObserverClosed)
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := NewObserver(4)
			handle := r.Register(o)
			_ = r.Snapshot()
			r.Unregister(handle)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

func TestObserverTrySendBusyWhenBufferFull(t *testing.T) {
	o := NewObserver(1)

	require.NoError(t, o.TrySend([]byte("first")))
	assert.ErrorIs(t, o.TrySend([]byte("second")), ErrObserverBusy)

	// draining one frame frees the slot again
	<-o.Frames()
	assert.NoError(t, o.TrySend([]byte("third")))
}
