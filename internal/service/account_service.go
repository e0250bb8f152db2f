package service

import (
	"fmt"
	"log/slog"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"

	"github.com/shopspring/decimal"
)

type Accounts interface {
	CreateNew(initialBalance decimal.Decimal) (models.AccountID, error)
	FindByID(id models.AccountID) (models.Account, error)
}

type AccountService struct {
	accounts storage.AccountLedger
	log      *slog.Logger
}

func NewAccountService(accounts storage.AccountLedger, log *slog.Logger) Accounts {
	return &AccountService{
		accounts: accounts,
		log:      log,
	}
}

func (s *AccountService) CreateNew(initialBalance decimal.Decimal) (models.AccountID, error) {
	const op = "service.CreateAccount"

	account, err := models.NewAccount(models.NewAccountID(), initialBalance)
	if err != nil {
		return "", fmt.Errorf("%w: %s", custom_err.ErrInvalidAmount, err.Error())
	}

	if err := s.accounts.Save(account); err != nil {
		s.log.Error("failed to save account", slog.String("op", op), slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account created",
		slog.String("account_id", account.ID.String()),
		slog.String("balance", account.Balance.String()))
	return account.ID, nil
}

func (s *AccountService) FindByID(id models.AccountID) (models.Account, error) {
	const op = "service.FindAccount"

	account, err := s.accounts.Get(id)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}
