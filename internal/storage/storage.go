package storage

import "gw-transfer-service/internal/models"

// UpdateFunc receives the current account value and returns its replacement.
// Returning an error aborts the update and leaves the stored value intact.
type UpdateFunc func(current models.Account) (models.Account, error)

type AccountLedger interface {
	Save(account models.Account) error
	Get(id models.AccountID) (models.Account, error)
	// Update runs fn atomically with respect to every other Update or Save on the same id.
	Update(id models.AccountID, fn UpdateFunc) (models.Account, error)
	List() []models.Account
}

type TransferLedger interface {
	Put(transfer models.Transfer) error
	Get(id models.TransferID) (models.Transfer, error)
	List() []models.Transfer
}
