// Package sink provides durable stores for decoded ticks.
//
// The session writes one batch per decoded frame, in frame-arrival order.
// Writes are best-effort: callers log a failed write and keep ingesting.
package sink

import (
	"context"

	"github.com/apatel/nifty-data/internal/model"
)

// Sink consumes batches of normalized ticks.
type Sink interface {
	// Write persists a batch of ticks. The batch is never empty.
	Write(ctx context.Context, ticks []model.Tick) error

	// Close releases the underlying store.
	Close() error
}

// Multi fans every batch out to all configured sinks and returns the
// first error encountered, after attempting every sink.
type Multi struct {
	sinks []Sink
}

// NewMulti builds a fan-out sink. Nil entries are dropped.
func NewMulti(sinks ...Sink) *Multi {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

func (m *Multi) Write(ctx context.Context, ticks []model.Tick) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Write(ctx, ticks); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
