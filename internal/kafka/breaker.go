package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gw-transfer-service/internal/models"

	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

// BreakerProducer stops calling the broker after repeated send failures and
// rejects outcomes immediately until OpenTimeout has passed.
type BreakerProducer struct {
	next    Producer
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

func NewBreakerProducer(next Producer, cfg BreakerConfig, log *slog.Logger) Producer {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("состояние circuit breaker изменилось",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &BreakerProducer{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

func (p *BreakerProducer) SendTransferOutcome(ctx context.Context, event models.TransferOutcomeEvent) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.next.SendTransferOutcome(ctx, event)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.log.Warn("kafka недоступна, событие отклонено circuit breaker",
			slog.String("transfer_id", event.TransferID.String()))
		return fmt.Errorf("kafka producer unavailable: %w", err)
	}
	return err
}

func (p *BreakerProducer) State() gobreaker.State {
	return p.breaker.State()
}

func (p *BreakerProducer) Close() error {
	return p.next.Close()
}
