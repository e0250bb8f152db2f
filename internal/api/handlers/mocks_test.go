package handlers

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"gw-transfer-service/internal/models"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateNew(initialBalance decimal.Decimal) (models.AccountID, error) {
	args := m.Called(initialBalance)
	return args.Get(0).(models.AccountID), args.Error(1)
}

func (m *MockAccountService) FindByID(id models.AccountID) (models.Account, error) {
	args := m.Called(id)
	return args.Get(0).(models.Account), args.Error(1)
}

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) CreateNew(sourceID, targetID models.AccountID, amount decimal.Decimal) (models.TransferID, error) {
	args := m.Called(sourceID, targetID, amount)
	return args.Get(0).(models.TransferID), args.Error(1)
}

func (m *MockTransferService) FindByID(id models.TransferID) (models.Transfer, error) {
	args := m.Called(id)
	return args.Get(0).(models.Transfer), args.Error(1)
}

func (m *MockTransferService) FindAll() []models.Transfer {
	args := m.Called()
	return args.Get(0).([]models.Transfer)
}
