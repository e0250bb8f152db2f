package pipeline

import (
	"fmt"
	"time"

	"gw-transfer-service/internal/custom_err"
)

type EventStoreConfig struct {
	BufferSize   int
	PutTimeout   time.Duration
	PollInterval time.Duration
}

// EventStore is a bounded FIFO queue. Put never blocks longer than PutTimeout
// and Take never blocks longer than PollInterval.
type EventStore[T any] struct {
	queue        chan T
	putTimeout   time.Duration
	pollInterval time.Duration
}

func NewEventStore[T any](cfg EventStoreConfig) (*EventStore[T], error) {
	const op = "pipeline.NewEventStore"

	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("%s: buffer size must be positive, got %d: %w", op, cfg.BufferSize, custom_err.ErrInvalidConfig)
	}

	return &EventStore[T]{
		queue:        make(chan T, cfg.BufferSize),
		putTimeout:   cfg.PutTimeout,
		pollInterval: cfg.PollInterval,
	}, nil
}

func (s *EventStore[T]) Put(event T) bool {
	select {
	case s.queue <- event:
		return true
	default:
	}

	if s.putTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(s.putTimeout)
	defer timer.Stop()

	select {
	case s.queue <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *EventStore[T]) Take() (T, bool) {
	select {
	case event := <-s.queue:
		return event, true
	default:
	}

	var zero T
	if s.pollInterval <= 0 {
		return zero, false
	}

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	select {
	case event := <-s.queue:
		return event, true
	case <-timer.C:
		return zero, false
	}
}

// Clear drops every queued event and returns how many were dropped.
func (s *EventStore[T]) Clear() int {
	dropped := 0
	for {
		select {
		case <-s.queue:
			dropped++
		default:
			return dropped
		}
	}
}

func (s *EventStore[T]) Len() int {
	return len(s.queue)
}

func (s *EventStore[T]) Cap() int {
	return cap(s.queue)
}
