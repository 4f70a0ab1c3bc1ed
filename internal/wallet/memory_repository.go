package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[uuid.UUID]Wallet
}

// NewMemoryRepository constructs an in-memory store for tests and local runs.
func NewMemoryRepository() Store {
	return &memoryRepository{storage: make(map[uuid.UUID]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[wallet.ID]; exists {
		return ErrExists
	}
	r.storage[wallet.ID] = wallet
	return nil
}

func (r *memoryRepository) Find(_ context.Context, id uuid.UUID) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.storage[id]
	if !ok {
		return Wallet{}, NotFoundError(id)
	}
	return wallet, nil
}

func (r *memoryRepository) Save(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[wallet.ID]; !ok {
		return NotFoundError(wallet.ID)
	}
	r.storage[wallet.ID] = wallet
	return nil
}
