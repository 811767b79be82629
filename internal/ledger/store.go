package ledger

import (
	"context"
	"sync"

	sol "github.com/gagliardetto/solana-go"
)

// Store persists accounts.
//
// Commit applies every write or none. Each written account carries the
// version it was read at; the commit fails with ErrConflict if any stored
// version differs (0 means the address must not exist yet). Committed
// accounts are stored at Version+1.
type Store interface {
	Get(ctx context.Context, addr sol.PublicKey) (Account, error)
	Commit(ctx context.Context, writes []Account) error
	Ping(ctx context.Context) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[sol.PublicKey]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[sol.PublicKey]Account)}
}

func (s *MemoryStore) Get(_ context.Context, addr sol.PublicKey) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[addr]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a.clone(), nil
}

func (s *MemoryStore) Commit(_ context.Context, writes []Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		cur, ok := s.accounts[w.Address]
		if w.Version == 0 && ok {
			return ErrConflict
		}
		if w.Version > 0 && (!ok || cur.Version != w.Version) {
			return ErrConflict
		}
	}
	for _, w := range writes {
		a := w.clone()
		a.Version = w.Version + 1
		s.accounts[w.Address] = a
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored accounts (for tests).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
