package memory

import (
	"fmt"
	"sync"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"
)

type accountEntry struct {
	mu      sync.Mutex
	account models.Account
}

type InMemoryAccountLedger struct {
	mu       sync.RWMutex
	accounts map[models.AccountID]*accountEntry
	order    []models.AccountID
}

func NewAccountLedger() storage.AccountLedger {
	return &InMemoryAccountLedger{
		accounts: make(map[models.AccountID]*accountEntry),
	}
}

func (l *InMemoryAccountLedger) Save(account models.Account) error {
	const op = "storage.memory.SaveAccount"

	if account.ID == "" {
		return fmt.Errorf("%s: %w", op, custom_err.ErrInvalidInput)
	}

	l.mu.Lock()
	entry, ok := l.accounts[account.ID]
	if !ok {
		l.accounts[account.ID] = &accountEntry{account: account}
		l.order = append(l.order, account.ID)
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	entry.mu.Lock()
	entry.account = account
	entry.mu.Unlock()
	return nil
}

func (l *InMemoryAccountLedger) Get(id models.AccountID) (models.Account, error) {
	const op = "storage.memory.GetAccount"

	entry, ok := l.entry(id)
	if !ok {
		return models.Account{}, fmt.Errorf("%s: account %s: %w", op, id, custom_err.ErrNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (l *InMemoryAccountLedger) Update(id models.AccountID, fn storage.UpdateFunc) (models.Account, error) {
	const op = "storage.memory.UpdateAccount"

	entry, ok := l.entry(id)
	if !ok {
		return models.Account{}, fmt.Errorf("%s: account %s: %w", op, id, custom_err.ErrNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next, err := fn(entry.account)
	if err != nil {
		return entry.account, fmt.Errorf("%s: %w", op, err)
	}
	next.ID = id
	entry.account = next
	return next, nil
}

func (l *InMemoryAccountLedger) List() []models.Account {
	l.mu.RLock()
	entries := make([]*accountEntry, 0, len(l.order))
	for _, id := range l.order {
		entries = append(entries, l.accounts[id])
	}
	l.mu.RUnlock()

	accounts := make([]models.Account, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		accounts = append(accounts, entry.account)
		entry.mu.Unlock()
	}
	return accounts
}

func (l *InMemoryAccountLedger) entry(id models.AccountID) (*accountEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.accounts[id]
	return entry, ok
}
