package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"
	"gw-transfer-service/internal/storage/memory"
)

type managerFixture struct {
	manager   *InMemoryTransferManager
	accounts  storage.AccountLedger
	transfers *spyTransferLedger
}

func setupTransferManager(t *testing.T, bufferSize, maxThreads int, accounts storage.AccountLedger, notifier Notifier) *managerFixture {
	t.Helper()

	if accounts == nil {
		accounts = memory.NewAccountLedger()
	}
	transfers := newSpyTransferLedger(memory.NewTransferLedger())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager, err := NewTransferManager(
		transfers,
		accounts,
		NewDebitTransferValidator(accounts),
		notifier,
		ManagerConfig{
			BufferSize:   bufferSize,
			MaxThreads:   maxThreads,
			LaneCapacity: 64,
			PutTimeout:   time.Millisecond,
			PollInterval: 5 * time.Millisecond,
		},
		log,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = manager.Stop(context.Background())
	})

	return &managerFixture{manager: manager, accounts: accounts, transfers: transfers}
}

func (f *managerFixture) openAccount(t *testing.T, id models.AccountID, balance string) {
	t.Helper()
	require.NoError(t, f.accounts.Save(models.Account{ID: id, Balance: decimal.RequireFromString(balance)}))
}

func (f *managerFixture) submit(t *testing.T, source, target models.AccountID, amount string) *models.TransferEvent {
	t.Helper()
	event, err := models.NewTransferEvent(source, target, decimal.RequireFromString(amount))
	require.NoError(t, err)
	require.True(t, f.manager.SubmitEvent(event))
	return event
}

func (f *managerFixture) awaitTerminal(t *testing.T, ids ...models.TransferID) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, id := range ids {
			transfer, err := f.transfers.Get(id)
			if err != nil || !transfer.State.IsTerminal() {
				return false
			}
		}
		return true
	}, 10*time.Second, 5*time.Millisecond)
}

func (f *managerFixture) balance(t *testing.T, id models.AccountID) string {
	t.Helper()
	account, err := f.accounts.Get(id)
	require.NoError(t, err)
	return account.Balance.String()
}

func TestNewTransferManager_InvalidConfig(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := memory.NewAccountLedger()

	_, err := NewTransferManager(memory.NewTransferLedger(), accounts, NewDebitTransferValidator(accounts), nil,
		ManagerConfig{BufferSize: 0, MaxThreads: 1}, log)
	assert.ErrorIs(t, err, custom_err.ErrInvalidConfig)

	_, err = NewTransferManager(memory.NewTransferLedger(), accounts, NewDebitTransferValidator(accounts), nil,
		ManagerConfig{BufferSize: 1, MaxThreads: 0}, log)
	assert.ErrorIs(t, err, custom_err.ErrInvalidConfig)
}

func TestTransferManager_SuccessfulTransfer(t *testing.T) {
	f := setupTransferManager(t, 10, 2, nil, nil)
	f.openAccount(t, "a", "100")
	f.openAccount(t, "b", "0")
	require.NoError(t, f.manager.Start())

	event := f.submit(t, "a", "b", "30")
	f.awaitTerminal(t, event.ID)

	transfer, err := f.transfers.Get(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStateDone, transfer.State)
	assert.Equal(t, models.DetailsProcessed, transfer.Details)
	assert.Equal(t, "70", f.balance(t, "a"))
	assert.Equal(t, "30", f.balance(t, "b"))

	assert.Equal(t, []models.TransferState{
		models.TransferStatePending,
		models.TransferStateValidated,
		models.TransferStateSourceWithdrawn,
		models.TransferStateTargetDeposited,
		models.TransferStateDone,
	}, f.transfers.history(event.ID))
}

func TestTransferManager_InsufficientBalance(t *testing.T) {
	f := setupTransferManager(t, 10, 2, nil, nil)
	f.openAccount(t, "a", "10")
	f.openAccount(t, "b", "0")
	require.NoError(t, f.manager.Start())

	event := f.submit(t, "a", "b", "30")
	f.awaitTerminal(t, event.ID)

	transfer, err := f.transfers.Get(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStateError, transfer.State)
	assert.Equal(t, custom_err.ErrInsufficientBalance.Error(), transfer.Details)
	assert.Equal(t, "10", f.balance(t, "a"))
	assert.Equal(t, "0", f.balance(t, "b"))

	history := f.transfers.history(event.ID)
	require.NotEmpty(t, history)
	assert.Equal(t, models.TransferStatePending, history[0])
	for _, state := range history[1:] {
		assert.Equal(t, models.TransferStateError, state)
	}
}

func TestTransferManager_ValidationFailuresLeaveBalancesUnchanged(t *testing.T) {
	f := setupTransferManager(t, 10, 2, nil, nil)
	f.openAccount(t, "a", "50")
	f.openAccount(t, "b", "5")
	require.NoError(t, f.manager.Start())

	cases := []struct {
		source, target models.AccountID
		amount         string
		reason         error
	}{
		{"a", "a", "10", custom_err.ErrSameAccount},
		{"a", "b", "0", custom_err.ErrNonPositiveAmount},
		{"a", "ghost", "1", custom_err.ErrTargetNotFound},
		{"ghost", "b", "1", custom_err.ErrSourceNotFound},
	}

	events := make([]*models.TransferEvent, len(cases))
	for i, c := range cases {
		events[i] = f.submit(t, c.source, c.target, c.amount)
	}
	ids := make([]models.TransferID, len(events))
	for i, event := range events {
		ids[i] = event.ID
	}
	f.awaitTerminal(t, ids...)

	for i, c := range cases {
		transfer, err := f.transfers.Get(events[i].ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStateError, transfer.State)
		assert.Equal(t, c.reason.Error(), transfer.Details)
	}
	assert.Equal(t, "50", f.balance(t, "a"))
	assert.Equal(t, "5", f.balance(t, "b"))
}

func TestTransferManager_RejectsWhenBufferFull(t *testing.T) {
	f := setupTransferManager(t, 2, 1, nil, nil)

	f.submit(t, "a", "b", "1")
	f.submit(t, "a", "b", "1")

	overflow, err := models.NewTransferEvent("a", "b", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, f.manager.SubmitEvent(overflow))
	assert.Equal(t, 2, f.manager.QueueDepth())

	_, err = f.transfers.Get(overflow.ID)
	assert.ErrorIs(t, err, custom_err.ErrNotFound)
}

func TestTransferManager_RejectsNonNewEvent(t *testing.T) {
	f := setupTransferManager(t, 2, 1, nil, nil)

	event, err := models.NewTransferEvent("a", "b", decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, event.Advance(models.TransferStatePending, models.DetailsProcessing))

	assert.False(t, f.manager.SubmitEvent(event))
	assert.False(t, f.manager.SubmitEvent(nil))
}

func TestTransferManager_DebitsAreSerialized(t *testing.T) {
	f := setupTransferManager(t, 100, 8, nil, nil)
	f.openAccount(t, "source", "100")
	targets := []models.AccountID{"t1", "t2", "t3", "t4"}
	for _, id := range targets {
		f.openAccount(t, id, "0")
	}

	ids := make([]models.TransferID, 0, 20)
	for i := 0; i < 20; i++ {
		ids = append(ids, f.submit(t, "source", targets[i%len(targets)], "10").ID)
	}
	require.NoError(t, f.manager.Start())
	f.awaitTerminal(t, ids...)

	done, failed := 0, 0
	for _, id := range ids {
		transfer, err := f.transfers.Get(id)
		require.NoError(t, err)
		switch transfer.State {
		case models.TransferStateDone:
			done++
		case models.TransferStateError:
			failed++
			assert.Equal(t, custom_err.ErrInsufficientBalance.Error(), transfer.Details)
		}
	}

	assert.Equal(t, 10, done)
	assert.Equal(t, 10, failed)
	assert.Equal(t, "0", f.balance(t, "source"))

	total := decimal.Zero
	for _, id := range targets {
		account, err := f.accounts.Get(id)
		require.NoError(t, err)
		total = total.Add(account.Balance)
	}
	assert.Equal(t, "100", total.String())
}

func TestTransferManager_CompensatingPairsUnderLoad(t *testing.T) {
	const pairs = 300
	f := setupTransferManager(t, pairs*2, 8, nil, nil)

	accountIDs := make([]models.AccountID, 10)
	for i := range accountIDs {
		accountIDs[i] = models.NewAccountID()
		f.openAccount(t, accountIDs[i], "10000")
	}

	rnd := rand.New(rand.NewSource(42))
	ids := make([]models.TransferID, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		x := accountIDs[rnd.Intn(len(accountIDs))]
		y := accountIDs[rnd.Intn(len(accountIDs))]
		for y == x {
			y = accountIDs[rnd.Intn(len(accountIDs))]
		}
		amount := decimal.New(int64(rnd.Intn(1000)+1), -2).String()

		ids = append(ids, f.submit(t, x, y, amount).ID)
		ids = append(ids, f.submit(t, y, x, amount).ID)
	}

	require.NoError(t, f.manager.Start())
	f.awaitTerminal(t, ids...)

	for _, id := range ids {
		transfer, err := f.transfers.Get(id)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStateDone, transfer.State, "transfer %s: %s", id, transfer.Details)
	}
	for _, id := range accountIDs {
		account, err := f.accounts.Get(id)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(10000).Equal(account.Balance), "account %s has %s", id, account.Balance)
	}
}

func TestTransferManager_ConcurrentCompensatingPairs(t *testing.T) {
	const pairs = 300
	f := setupTransferManager(t, pairs*2, 8, nil, nil)
	f.openAccount(t, "a", "1000")
	f.openAccount(t, "b", "1000")
	require.NoError(t, f.manager.Start())

	var (
		mu  sync.Mutex
		ids = make([]models.TransferID, 0, pairs*2)
		wg  sync.WaitGroup
	)
	submit := func(source, target models.AccountID, amount decimal.Decimal) {
		event, err := models.NewTransferEvent(source, target, amount)
		if !assert.NoError(t, err) {
			return
		}
		if assert.True(t, f.manager.SubmitEvent(event)) {
			mu.Lock()
			ids = append(ids, event.ID)
			mu.Unlock()
		}
	}

	for i := 0; i < pairs; i++ {
		amount := decimal.New(int64(i%100+1), -2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			submit("a", "b", amount)
		}()
		go func() {
			defer wg.Done()
			submit("b", "a", amount)
		}()
	}
	wg.Wait()
	require.Len(t, ids, pairs*2)
	f.awaitTerminal(t, ids...)

	for _, id := range ids {
		transfer, err := f.transfers.Get(id)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStateDone, transfer.State, "transfer %s: %s", id, transfer.Details)
	}
	assert.Equal(t, "1000", f.balance(t, "a"))
	assert.Equal(t, "1000", f.balance(t, "b"))
}

func TestTransferManager_UnexpectedStageFailureRecordsError(t *testing.T) {
	base := memory.NewAccountLedger()
	accounts := &failingAccountLedger{AccountLedger: base, failOn: "b", err: errors.New("ledger offline")}
	f := setupTransferManager(t, 10, 2, accounts, nil)
	f.openAccount(t, "a", "100")
	f.openAccount(t, "b", "0")
	require.NoError(t, f.manager.Start())

	event := f.submit(t, "a", "b", "30")
	f.awaitTerminal(t, event.ID)

	transfer, err := f.transfers.Get(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStateError, transfer.State)
	assert.True(t, strings.HasPrefix(transfer.Details, "Transfer failed: "), transfer.Details)
	assert.Contains(t, transfer.Details, "ledger offline")
}

func TestTransferManager_NotifiesTerminalOutcomes(t *testing.T) {
	var calls atomic.Int32
	count := func(mock.Arguments) { calls.Add(1) }

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.MatchedBy(func(transfer models.Transfer) bool {
		return transfer.State == models.TransferStateDone
	})).Run(count).Return().Once()
	notifier.On("Notify", mock.MatchedBy(func(transfer models.Transfer) bool {
		return transfer.State == models.TransferStateError
	})).Run(count).Return().Once()

	f := setupTransferManager(t, 10, 2, nil, notifier)
	f.openAccount(t, "a", "100")
	f.openAccount(t, "b", "0")
	require.NoError(t, f.manager.Start())

	ok := f.submit(t, "a", "b", "10")
	bad := f.submit(t, "a", "b", "1000")
	f.awaitTerminal(t, ok.ID, bad.ID)

	require.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
	notifier.AssertExpectations(t)
}

func TestTransferManager_StopDiscardsQueuedEvents(t *testing.T) {
	f := setupTransferManager(t, 10, 2, nil, nil)
	f.openAccount(t, "a", "100")
	f.openAccount(t, "b", "0")

	f.submit(t, "a", "b", "1")
	f.submit(t, "a", "b", "1")
	require.Equal(t, 2, f.manager.QueueDepth())

	require.NoError(t, f.manager.Stop(context.Background()))
	assert.Equal(t, 0, f.manager.QueueDepth())
	assert.False(t, f.manager.Running())
	assert.Equal(t, "100", f.balance(t, "a"))
}

func TestTransferManager_StartTwice(t *testing.T) {
	f := setupTransferManager(t, 10, 2, nil, nil)

	require.NoError(t, f.manager.Start())
	assert.True(t, f.manager.Running())
	assert.ErrorIs(t, f.manager.Start(), custom_err.ErrAlreadyRunning)
}
