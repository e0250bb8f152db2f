package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"
)

type MockTransferManager struct {
	mock.Mock
}

func (m *MockTransferManager) SubmitEvent(event *models.TransferEvent) bool {
	args := m.Called(event)
	return args.Bool(0)
}

func (m *MockTransferManager) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTransferManager) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockTransferValidator struct {
	mock.Mock
}

func (m *MockTransferValidator) Validate(sourceID, targetID models.AccountID, amount decimal.Decimal) error {
	args := m.Called(sourceID, targetID, amount)
	return args.Error(0)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) SendTransferOutcome(ctx context.Context, event models.TransferOutcomeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(transfer models.Transfer) {
	m.Called(transfer)
}

// spyTransferLedger records every state written per transfer.
type spyTransferLedger struct {
	storage.TransferLedger

	mu     sync.Mutex
	states map[models.TransferID][]models.TransferState
}

func newSpyTransferLedger(inner storage.TransferLedger) *spyTransferLedger {
	return &spyTransferLedger{
		TransferLedger: inner,
		states:         make(map[models.TransferID][]models.TransferState),
	}
}

func (s *spyTransferLedger) Put(transfer models.Transfer) error {
	s.mu.Lock()
	s.states[transfer.ID] = append(s.states[transfer.ID], transfer.State)
	s.mu.Unlock()
	return s.TransferLedger.Put(transfer)
}

func (s *spyTransferLedger) history(id models.TransferID) []models.TransferState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TransferState(nil), s.states[id]...)
}

// failingAccountLedger fails every Update on one account.
type failingAccountLedger struct {
	storage.AccountLedger
	failOn models.AccountID
	err    error
}

func (l *failingAccountLedger) Update(id models.AccountID, fn storage.UpdateFunc) (models.Account, error) {
	if id == l.failOn {
		return models.Account{}, l.err
	}
	return l.AccountLedger.Update(id, fn)
}
