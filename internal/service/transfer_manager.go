package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/pipeline"
	"gw-transfer-service/internal/storage"
)

type TransferManager interface {
	SubmitEvent(event *models.TransferEvent) bool
	Start() error
	Stop(ctx context.Context) error
}

type Notifier interface {
	Notify(transfer models.Transfer)
}

type ManagerConfig struct {
	BufferSize   int
	MaxThreads   int
	LaneCapacity int
	PutTimeout   time.Duration
	PollInterval time.Duration
}

// InMemoryTransferManager owns the event store and drives every admitted
// transfer through the pipeline, writing a snapshot after each stage.
type InMemoryTransferManager struct {
	transfers storage.TransferLedger
	accounts  storage.AccountLedger
	validator TransferValidator
	notifier  Notifier
	store     *pipeline.EventStore[*models.TransferEvent]
	executor  *pipeline.Executor
	log       *slog.Logger
}

func NewTransferManager(
	transfers storage.TransferLedger,
	accounts storage.AccountLedger,
	validator TransferValidator,
	notifier Notifier,
	cfg ManagerConfig,
	log *slog.Logger,
) (*InMemoryTransferManager, error) {
	const op = "service.NewTransferManager"

	store, err := pipeline.NewEventStore[*models.TransferEvent](pipeline.EventStoreConfig{
		BufferSize:   cfg.BufferSize,
		PutTimeout:   cfg.PutTimeout,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := &InMemoryTransferManager{
		transfers: transfers,
		accounts:  accounts,
		validator: validator,
		notifier:  notifier,
		store:     store,
		log:       log,
	}

	executor, err := pipeline.NewExecutor(store, pipeline.Stages{
		Register: m.register,
		Validate: m.validate,
		IsValid:  m.isValid,
		Withdraw: m.withdraw,
		Deposit:  m.deposit,
		Complete: m.complete,
		OnError:  m.onError,
	}, pipeline.ExecutorConfig{
		MaxThreads:   cfg.MaxThreads,
		LaneCapacity: cfg.LaneCapacity,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.executor = executor

	return m, nil
}

// SubmitEvent admits a NEW transfer event. It returns false when the store is full.
func (m *InMemoryTransferManager) SubmitEvent(event *models.TransferEvent) bool {
	if event == nil || event.State() != models.TransferStateNew {
		m.log.Warn("rejected transfer event that is not NEW")
		return false
	}

	if !m.store.Put(event) {
		m.log.Warn("event store is full, transfer rejected",
			slog.String("transfer_id", event.ID.String()),
			slog.Int("buffer_size", m.store.Cap()))
		return false
	}
	return true
}

func (m *InMemoryTransferManager) Start() error {
	if err := m.executor.Start(); err != nil {
		return fmt.Errorf("service.StartTransferManager: %w", err)
	}
	return nil
}

// Stop halts the pipeline and discards events that were never taken.
func (m *InMemoryTransferManager) Stop(ctx context.Context) error {
	err := m.executor.Stop(ctx)

	if dropped := m.store.Clear(); dropped > 0 {
		m.log.Warn("queued transfers discarded on stop", slog.Int("dropped", dropped))
	}
	return err
}

func (m *InMemoryTransferManager) Running() bool {
	return m.executor.Running()
}

func (m *InMemoryTransferManager) QueueDepth() int {
	return m.store.Len()
}

func (m *InMemoryTransferManager) register(event *models.TransferEvent) (*models.TransferEvent, error) {
	if err := event.Advance(models.TransferStatePending, models.DetailsProcessing); err != nil {
		return nil, err
	}
	return event, m.persist(event)
}

func (m *InMemoryTransferManager) validate(event *models.TransferEvent) (*models.TransferEvent, error) {
	err := m.validator.Validate(event.SourceID, event.TargetID, event.Amount)
	if err != nil {
		m.log.Info("transfer rejected by validation",
			slog.String("transfer_id", event.ID.String()),
			slog.String("reason", err.Error()))
		if failErr := event.Fail(err.Error()); failErr != nil {
			return nil, failErr
		}
		return event, m.persist(event)
	}

	if err := event.Advance(models.TransferStateValidated, models.DetailsValid); err != nil {
		return nil, err
	}
	return event, m.persist(event)
}

func (m *InMemoryTransferManager) isValid(event *models.TransferEvent) bool {
	return event.State() == models.TransferStateValidated
}

func (m *InMemoryTransferManager) withdraw(event *models.TransferEvent) (*models.TransferEvent, error) {
	_, err := m.accounts.Update(event.SourceID, func(current models.Account) (models.Account, error) {
		balance := current.Balance.Sub(event.Amount)
		if balance.IsNegative() {
			return current, custom_err.ErrInsufficientFunds
		}
		return current.WithBalance(balance), nil
	})
	if err != nil {
		return nil, fmt.Errorf("withdraw from %s: %w", event.SourceID, err)
	}

	if err := event.Advance(models.TransferStateSourceWithdrawn, models.DetailsSourceWithdrawn); err != nil {
		return nil, err
	}
	return event, m.persist(event)
}

func (m *InMemoryTransferManager) deposit(event *models.TransferEvent) (*models.TransferEvent, error) {
	_, err := m.accounts.Update(event.TargetID, func(current models.Account) (models.Account, error) {
		return current.WithBalance(current.Balance.Add(event.Amount)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit to %s: %w", event.TargetID, err)
	}

	if err := event.Advance(models.TransferStateTargetDeposited, models.DetailsTargetDeposited); err != nil {
		return nil, err
	}
	return event, m.persist(event)
}

func (m *InMemoryTransferManager) complete(event *models.TransferEvent) (*models.TransferEvent, error) {
	switch event.State() {
	case models.TransferStateTargetDeposited:
		if err := event.Advance(models.TransferStateDone, models.DetailsProcessed); err != nil {
			return nil, err
		}
	case models.TransferStateError:
	default:
		if err := event.Fail(models.InvalidStateDetails(event.State())); err != nil {
			return nil, err
		}
	}

	if err := m.persist(event); err != nil {
		return nil, err
	}

	m.log.Debug("transfer completed",
		slog.String("transfer_id", event.ID.String()),
		slog.String("state", event.State().String()))
	m.notify(event)
	return event, nil
}

// onError records a terminal ERROR snapshot for a transfer whose stage failed
// unexpectedly, so every admitted transfer ends in a terminal state.
func (m *InMemoryTransferManager) onError(event *models.TransferEvent, err error) {
	if event == nil {
		m.log.Error("pipeline stage failed", slog.String("error", err.Error()))
		return
	}

	m.log.Error("pipeline stage failed",
		slog.String("transfer_id", event.ID.String()),
		slog.String("state", event.State().String()),
		slog.String("error", err.Error()))

	if event.State().IsTerminal() {
		return
	}
	if failErr := event.Fail(models.FailedDetails(err)); failErr != nil {
		m.log.Error("failed to mark transfer as failed", slog.String("error", failErr.Error()))
		return
	}
	if putErr := m.persist(event); putErr != nil {
		m.log.Error("failed to persist failed transfer",
			slog.String("transfer_id", event.ID.String()),
			slog.String("error", putErr.Error()))
		return
	}
	m.notify(event)
}

func (m *InMemoryTransferManager) persist(event *models.TransferEvent) error {
	if err := m.transfers.Put(event.Snapshot()); err != nil {
		return fmt.Errorf("persist transfer %s: %w", event.ID, err)
	}
	return nil
}

func (m *InMemoryTransferManager) notify(event *models.TransferEvent) {
	if m.notifier != nil {
		m.notifier.Notify(event.Snapshot())
	}
}
