package memory

import (
	"fmt"
	"sync"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"
)

// InMemoryTransferLedger keeps the latest snapshot per transfer. List returns
// transfers in the order they were first written.
type InMemoryTransferLedger struct {
	mu        sync.RWMutex
	transfers map[models.TransferID]models.Transfer
	order     []models.TransferID
}

func NewTransferLedger() storage.TransferLedger {
	return &InMemoryTransferLedger{
		transfers: make(map[models.TransferID]models.Transfer),
	}
}

func (l *InMemoryTransferLedger) Put(transfer models.Transfer) error {
	const op = "storage.memory.PutTransfer"

	if transfer.ID == "" {
		return fmt.Errorf("%s: %w", op, custom_err.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.transfers[transfer.ID]; !ok {
		l.order = append(l.order, transfer.ID)
	}
	l.transfers[transfer.ID] = transfer
	return nil
}

func (l *InMemoryTransferLedger) Get(id models.TransferID) (models.Transfer, error) {
	const op = "storage.memory.GetTransfer"

	l.mu.RLock()
	defer l.mu.RUnlock()

	transfer, ok := l.transfers[id]
	if !ok {
		return models.Transfer{}, fmt.Errorf("%s: transfer %s: %w", op, id, custom_err.ErrNotFound)
	}
	return transfer, nil
}

func (l *InMemoryTransferLedger) List() []models.Transfer {
	l.mu.RLock()
	defer l.mu.RUnlock()

	transfers := make([]models.Transfer, 0, len(l.order))
	for _, id := range l.order {
		transfers = append(transfers, l.transfers[id])
	}
	return transfers
}
