package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gw-transfer-service/internal/kafka"
	"gw-transfer-service/internal/models"
)

// TransferNotifier publishes terminal transfer outcomes from a pool of workers.
// Notify never blocks: when the queue is full the outcome is dropped.
type TransferNotifier struct {
	producer    kafka.Producer
	queue       chan models.TransferOutcomeEvent
	sendTimeout time.Duration
	log         *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

func NewTransferNotifier(producer kafka.Producer, queueSize, workers int, sendTimeout time.Duration, log *slog.Logger) *TransferNotifier {
	if queueSize <= 0 {
		queueSize = 100
	}
	if workers <= 0 {
		workers = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}

	n := &TransferNotifier{
		producer:    producer,
		queue:       make(chan models.TransferOutcomeEvent, queueSize),
		sendTimeout: sendTimeout,
		stopCh:      make(chan struct{}),
		log:         log,
	}

	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker(i)
	}

	return n
}

func (n *TransferNotifier) Notify(transfer models.Transfer) {
	event := models.NewTransferOutcomeEvent(transfer)

	select {
	case n.queue <- event:
		n.log.Debug("transfer outcome queued", slog.String("transfer_id", transfer.ID.String()))
	default:
		n.log.Error("outcome queue is full, event dropped",
			slog.String("transfer_id", transfer.ID.String()),
			slog.String("state", event.State))
	}
}

func (n *TransferNotifier) worker(id int) {
	defer n.wg.Done()
	n.log.Debug("notifier worker started", slog.Int("worker_id", id))

	for {
		select {
		case event := <-n.queue:
			n.send(id, event)
		case <-n.stopCh:
			n.log.Debug("notifier worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (n *TransferNotifier) send(workerID int, event models.TransferOutcomeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
	defer cancel()

	if err := n.producer.SendTransferOutcome(ctx, event); err != nil {
		n.log.Error("kafka send failed",
			slog.Int("worker_id", workerID),
			slog.String("transfer_id", event.TransferID.String()),
			slog.String("error", err.Error()))
		return
	}
	n.log.Debug("transfer outcome sent",
		slog.Int("worker_id", workerID),
		slog.String("transfer_id", event.TransferID.String()))
}

func (n *TransferNotifier) Shutdown(ctx context.Context) error {
	n.log.Info("shutting down transfer notifier")
	n.once.Do(func() { close(n.stopCh) })

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.log.Info("all notifier workers stopped", slog.Int("dropped", len(n.queue)))
		return nil
	case <-ctx.Done():
		n.log.Warn("notifier shutdown timeout exceeded")
		return ctx.Err()
	}
}
