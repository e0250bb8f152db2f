package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
)

var ErrStagePanic = errors.New("pipeline stage panicked")

type Stage func(event *models.TransferEvent) (*models.TransferEvent, error)

// Stages are the hooks the executor drives every event through.
// Register, Validate, IsValid and Withdraw run on the serial worker;
// Deposit runs on a deposit lane. Complete runs wherever the event ends up.
type Stages struct {
	Register Stage
	Validate Stage
	IsValid  func(event *models.TransferEvent) bool
	Withdraw Stage
	Deposit  Stage
	Complete Stage
	OnError  func(event *models.TransferEvent, err error)
}

func (s Stages) validate() error {
	if s.Register == nil || s.Validate == nil || s.IsValid == nil ||
		s.Withdraw == nil || s.Deposit == nil || s.Complete == nil || s.OnError == nil {
		return fmt.Errorf("all pipeline stages must be set: %w", custom_err.ErrInvalidConfig)
	}
	return nil
}

type Source interface {
	Take() (*models.TransferEvent, bool)
}

type ExecutorConfig struct {
	MaxThreads   int
	LaneCapacity int
}

type Executor struct {
	source       Source
	stages       Stages
	maxThreads   int
	laneCapacity int
	log          *slog.Logger

	mu      sync.Mutex
	running atomic.Bool
	counter atomic.Uint64
	lanes   []chan *models.TransferEvent
	stopCh  chan struct{}
	// done is closed once every worker of the latest run has exited.
	done chan struct{}
}

func NewExecutor(source Source, stages Stages, cfg ExecutorConfig, log *slog.Logger) (*Executor, error) {
	const op = "pipeline.NewExecutor"

	if source == nil {
		return nil, fmt.Errorf("%s: event source is required: %w", op, custom_err.ErrInvalidConfig)
	}
	if err := stages.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.MaxThreads <= 0 {
		return nil, fmt.Errorf("%s: max threads must be positive, got %d: %w", op, cfg.MaxThreads, custom_err.ErrInvalidConfig)
	}
	if cfg.LaneCapacity < 0 {
		return nil, fmt.Errorf("%s: lane capacity must not be negative: %w", op, custom_err.ErrInvalidConfig)
	}

	return &Executor{
		source:       source,
		stages:       stages,
		maxThreads:   cfg.MaxThreads,
		laneCapacity: cfg.LaneCapacity,
		log:          log,
	}, nil
}

func (e *Executor) Running() bool {
	return e.running.Load()
}

// Start launches a new run. It fails with ErrStopping while workers of a
// previous run whose Stop timed out are still draining.
func (e *Executor) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return custom_err.ErrAlreadyRunning
	}
	if e.done != nil {
		select {
		case <-e.done:
		default:
			return custom_err.ErrStopping
		}
	}

	stopCh := make(chan struct{})
	done := make(chan struct{})
	lanes := make([]chan *models.TransferEvent, e.maxThreads)
	for i := range lanes {
		lanes[i] = make(chan *models.TransferEvent, e.laneCapacity)
	}
	e.stopCh = stopCh
	e.done = done
	e.lanes = lanes
	e.running.Store(true)

	wg := &sync.WaitGroup{}
	for i, lane := range lanes {
		wg.Add(1)
		go e.depositWorker(wg, i, lane, stopCh)
	}
	wg.Add(1)
	go e.serialWorker(wg, lanes, stopCh)

	go func() {
		wg.Wait()
		close(done)
	}()

	e.log.Info("pipeline started",
		slog.Int("max_threads", e.maxThreads),
		slog.Int("lane_capacity", e.laneCapacity))
	return nil
}

// Stop signals every worker and waits for them or for ctx, whichever comes first.
// Events still queued on deposit lanes are abandoned. When ctx expires first the
// executor stays in the stopping state until the workers exit, and Stop may be
// called again to keep waiting.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done == nil {
		return nil
	}
	if e.running.Swap(false) {
		close(e.stopCh)
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		e.log.Warn("pipeline stop timeout exceeded")
		return ctx.Err()
	}

	abandoned := 0
	for _, lane := range e.lanes {
		abandoned += len(lane)
	}
	if abandoned > 0 {
		e.log.Warn("pipeline stopped with in-flight transfers", slog.Int("abandoned", abandoned))
		for _, lane := range e.lanes {
			for len(lane) > 0 {
				<-lane
			}
		}
	} else {
		e.log.Info("pipeline stopped")
	}
	return nil
}

func (e *Executor) serialWorker(wg *sync.WaitGroup, lanes []chan *models.TransferEvent, stopCh <-chan struct{}) {
	defer wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		event, ok := e.source.Take()
		if !ok {
			continue
		}
		e.dispatch(event, lanes, stopCh)
	}
}

func (e *Executor) dispatch(event *models.TransferEvent, lanes []chan *models.TransferEvent, stopCh <-chan struct{}) {
	event, ok := e.runStage("register", e.stages.Register, event)
	if !ok {
		return
	}
	event, ok = e.runStage("validate", e.stages.Validate, event)
	if !ok {
		return
	}

	var valid bool
	if !e.guard("is_valid", event, func() error {
		valid = e.stages.IsValid(event)
		return nil
	}) {
		return
	}
	if !valid {
		e.runStage("complete", e.stages.Complete, event)
		return
	}

	event, ok = e.runStage("withdraw", e.stages.Withdraw, event)
	if !ok {
		return
	}

	lane := (e.counter.Add(1) - 1) % uint64(len(lanes))
	select {
	case lanes[lane] <- event:
	case <-stopCh:
		e.log.Warn("transfer abandoned on stop",
			slog.String("transfer_id", event.ID.String()),
			slog.String("state", event.State().String()))
	}
}

func (e *Executor) depositWorker(wg *sync.WaitGroup, id int, lane <-chan *models.TransferEvent, stopCh <-chan struct{}) {
	defer wg.Done()
	e.log.Debug("deposit worker started", slog.Int("worker_id", id))

	for {
		select {
		case <-stopCh:
			e.log.Debug("deposit worker stopping", slog.Int("worker_id", id))
			return
		case event := <-lane:
			if !e.running.Load() {
				e.log.Warn("transfer abandoned on stop",
					slog.Int("worker_id", id),
					slog.String("transfer_id", event.ID.String()))
				return
			}
			event, ok := e.runStage("deposit", e.stages.Deposit, event)
			if !ok {
				continue
			}
			e.runStage("complete", e.stages.Complete, event)
		}
	}
}

func (e *Executor) runStage(name string, stage Stage, event *models.TransferEvent) (*models.TransferEvent, bool) {
	var next *models.TransferEvent
	ok := e.guard(name, event, func() error {
		var err error
		next, err = stage(event)
		if err != nil {
			return err
		}
		if next == nil {
			return errors.New("stage returned no event")
		}
		return nil
	})
	return next, ok
}

func (e *Executor) guard(name string, event *models.TransferEvent, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(event, fmt.Errorf("%w: %s: %v", ErrStagePanic, name, r))
			ok = false
		}
	}()

	if err := fn(); err != nil {
		e.fail(event, fmt.Errorf("stage %s: %w", name, err))
		return false
	}
	return true
}

func (e *Executor) fail(event *models.TransferEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("error handler panicked", slog.Any("panic", r))
		}
	}()
	e.stages.OnError(event, err)
}
