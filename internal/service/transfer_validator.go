package service

import (
	"errors"
	"fmt"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"

	"github.com/shopspring/decimal"
)

type TransferValidator interface {
	Validate(sourceID, targetID models.AccountID, amount decimal.Decimal) error
}

// DebitTransferValidator checks a transfer against the current ledger state.
// Checks run in a fixed order and the first failing one is reported.
type DebitTransferValidator struct {
	accounts storage.AccountLedger
}

func NewDebitTransferValidator(accounts storage.AccountLedger) *DebitTransferValidator {
	return &DebitTransferValidator{accounts: accounts}
}

func (v *DebitTransferValidator) Validate(sourceID, targetID models.AccountID, amount decimal.Decimal) error {
	const op = "service.ValidateTransfer"

	if sourceID == "" {
		return custom_err.ErrSourceRequired
	}
	if targetID == "" {
		return custom_err.ErrTargetRequired
	}

	source, err := v.accounts.Get(sourceID)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return custom_err.ErrSourceNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := v.accounts.Get(targetID); err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return custom_err.ErrTargetNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if !amount.IsPositive() {
		return custom_err.ErrNonPositiveAmount
	}
	if source.Balance.LessThan(amount) {
		return custom_err.ErrInsufficientBalance
	}
	if sourceID == targetID {
		return custom_err.ErrSameAccount
	}
	return nil
}

var validationErrors = []error{
	custom_err.ErrSourceRequired,
	custom_err.ErrTargetRequired,
	custom_err.ErrSourceNotFound,
	custom_err.ErrTargetNotFound,
	custom_err.ErrNonPositiveAmount,
	custom_err.ErrInsufficientBalance,
	custom_err.ErrSameAccount,
}

// ValidationReason returns the business rule err violates, if any.
func ValidationReason(err error) (error, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}
