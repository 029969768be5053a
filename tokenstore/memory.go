package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe volatile Store. Its contents are lost when the
// process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]map[Kind]string
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Batcher = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory token store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]map[Kind]string),
	}
}

func (m *MemoryStore) Read(_ context.Context, accountID string, kind Kind) (string, bool, error) {
	if err := validateKey(accountID, kind); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.accounts[accountID][kind]
	return value, ok, nil
}

func (m *MemoryStore) Write(ctx context.Context, accountID string, kind Kind, value string) error {
	return m.Apply(ctx, accountID, []Change{Set(kind, value)})
}

func (m *MemoryStore) Delete(ctx context.Context, accountID string, kind Kind) error {
	return m.Apply(ctx, accountID, []Change{Remove(kind)})
}

// Apply implements Batcher. All changes become visible together.
func (m *MemoryStore) Apply(_ context.Context, accountID string, changes []Change) error {
	if err := validateChanges(accountID, changes); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.accounts[accountID]
	if !ok {
		values = make(map[Kind]string, len(changes))
		m.accounts[accountID] = values
	}
	for _, c := range changes {
		if c.Delete {
			delete(values, c.Kind)
			continue
		}
		values[c.Kind] = c.Value
	}
	if len(values) == 0 {
		delete(m.accounts, accountID)
	}
	return nil
}

// Accounts lists the account ids that currently hold at least one value.
func (m *MemoryStore) Accounts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	return ids
}
