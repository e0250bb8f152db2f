package models

import (
	"gw-transfer-service/internal/custom_err"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountID идентификатор счета
type AccountID string

func NewAccountID() AccountID {
	return AccountID(uuid.NewString())
}

func (id AccountID) String() string {
	return string(id)
}

// Account представляет счет с балансом. Значение неизменяемое:
// обновление баланса создает новую копию через WithBalance.
type Account struct {
	ID      AccountID       `json:"id"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string" example:"100.50"`
}

func NewAccount(id AccountID, balance decimal.Decimal) (Account, error) {
	if id == "" {
		return Account{}, custom_err.ErrInvalidInput
	}
	if balance.IsNegative() {
		return Account{}, custom_err.ErrNegativeInitialAmount
	}
	return Account{ID: id, Balance: balance}, nil
}

func (a Account) WithBalance(balance decimal.Decimal) Account {
	return Account{ID: a.ID, Balance: balance}
}

// CreateAccountRequest запрос на открытие счета
type CreateAccountRequest struct {
	InitialBalance *decimal.Decimal `json:"initialBalance" swaggertype:"string" example:"1000.00"`
}

// CreatedResponse ответ с идентификатором созданного ресурса
type CreatedResponse struct {
	ID string `json:"id" example:"3f1c2a9e-8d55-4a43-9a4b-2f7d8f7a6c10"`
}
