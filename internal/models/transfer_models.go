package models

import (
	"fmt"

	"gw-transfer-service/internal/custom_err"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferID идентификатор перевода
type TransferID string

func NewTransferID() TransferID {
	return TransferID(uuid.NewString())
}

func (id TransferID) String() string {
	return string(id)
}

const (
	DetailsCreated         = "Transfer created"
	DetailsProcessing      = "Transfer processing"
	DetailsValid           = "Transfer is valid"
	DetailsSourceWithdrawn = "Source account balance updated"
	DetailsTargetDeposited = "Target account balance updated"
	DetailsProcessed       = "Transfer processed"

	detailsInvalidStateFormat = "Transfer is not in a valid state: %s"
	detailsFailedFormat       = "Transfer failed: %s"
)

func InvalidStateDetails(state TransferState) string {
	return fmt.Sprintf(detailsInvalidStateFormat, state)
}

func FailedDetails(err error) string {
	return fmt.Sprintf(detailsFailedFormat, err.Error())
}

// Transfer неизменяемый снимок перевода, который хранится в журнале
type Transfer struct {
	ID       TransferID      `json:"id"`
	SourceID AccountID       `json:"sourceAccountId"`
	TargetID AccountID       `json:"targetAccountId"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	State    TransferState   `json:"state" swaggertype:"string" example:"DONE"`
	Details  string          `json:"details"`
}

// TransferEvent рабочая единица конвейера. Состояние меняется только через
// Advance и Fail, которые проверяют допустимость перехода.
type TransferEvent struct {
	ID       TransferID
	SourceID AccountID
	TargetID AccountID
	Amount   decimal.Decimal

	state   TransferState
	details string
}

func NewTransferEvent(sourceID, targetID AccountID, amount decimal.Decimal) (*TransferEvent, error) {
	if sourceID == "" {
		return nil, custom_err.ErrSourceRequired
	}
	if targetID == "" {
		return nil, custom_err.ErrTargetRequired
	}

	return &TransferEvent{
		ID:       NewTransferID(),
		SourceID: sourceID,
		TargetID: targetID,
		Amount:   amount,
		state:    TransferStateNew,
		details:  DetailsCreated,
	}, nil
}

func (e *TransferEvent) State() TransferState {
	return e.state
}

func (e *TransferEvent) Details() string {
	return e.details
}

func (e *TransferEvent) Advance(next TransferState, details string) error {
	if !e.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", custom_err.ErrInvalidTransition, e.state, next)
	}
	e.state = next
	e.details = details
	return nil
}

func (e *TransferEvent) Fail(details string) error {
	return e.Advance(TransferStateError, details)
}

func (e *TransferEvent) Snapshot() Transfer {
	return Transfer{
		ID:       e.ID,
		SourceID: e.SourceID,
		TargetID: e.TargetID,
		Amount:   e.Amount,
		State:    e.state,
		Details:  e.details,
	}
}

// CreateTransferRequest запрос на перевод между счетами
type CreateTransferRequest struct {
	SourceAccountID AccountID        `json:"sourceAccountId" example:"3f1c2a9e-8d55-4a43-9a4b-2f7d8f7a6c10"`
	TargetAccountID AccountID        `json:"targetAccountId" example:"a7d0e4b2-1c9f-4e8a-b6d3-5f2e9c8b7a61"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
}
