package samplelog

import (
	"context"
	"sync"

	"unibus/internal/domain"
)

// MemoryLog keeps the sample stream in process memory. It is the
// default when no external log is configured; durability then ends
// with the process, which is acceptable for development and tests.
type MemoryLog struct {
	mu      sync.RWMutex
	samples []domain.PositionSample
	cap     int
}

func NewMemoryLog(historyCap int) *MemoryLog {
	return &MemoryLog{cap: historyCap}
}

func (l *MemoryLog) Append(_ context.Context, s domain.PositionSample) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples = append(l.samples, s)
	if l.cap > 0 && len(l.samples) > l.cap {
		l.samples = l.samples[len(l.samples)-l.cap:]
	}
	return nil
}

func (l *MemoryLog) Replay(_ context.Context, fn func(domain.PositionSample) error) error {
	l.mu.RLock()
	snapshot := make([]domain.PositionSample, len(l.samples))
	copy(snapshot, l.samples)
	l.mu.RUnlock()

	for _, s := range snapshot {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *MemoryLog) Ping(context.Context) error { return nil }

func (l *MemoryLog) Close() error { return nil }

// Len reports how many samples are retained
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}
