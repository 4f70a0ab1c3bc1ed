package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cachePrefix = "wallet:v1:"

type cachedWallet struct {
	ID             string    `json:"id"`
	Balance        string    `json:"balance"`
	OwnerFirstName string    `json:"owner_first_name"`
	OwnerLastName  string    `json:"owner_last_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Cache keeps the last committed state of wallets in Redis. It is written
// only by committers, so a hit never predates the latest commit that
// refreshed it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache builds a Redis-backed wallet cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached wallet; ok is false on a miss.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (Wallet, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Wallet{}, false, nil
	}
	if err != nil {
		return Wallet{}, false, fmt.Errorf("cache get: %w", err)
	}

	var cw cachedWallet
	if err := json.Unmarshal(raw, &cw); err != nil {
		return Wallet{}, false, fmt.Errorf("cache decode: %w", err)
	}
	balance, err := decimal.NewFromString(cw.Balance)
	if err != nil {
		return Wallet{}, false, fmt.Errorf("cache decode balance: %w", err)
	}
	walletID, err := uuid.Parse(cw.ID)
	if err != nil {
		return Wallet{}, false, fmt.Errorf("cache decode id: %w", err)
	}
	return Wallet{
		ID:             walletID,
		Balance:        balance,
		OwnerFirstName: cw.OwnerFirstName,
		OwnerLastName:  cw.OwnerLastName,
		CreatedAt:      cw.CreatedAt,
		UpdatedAt:      cw.UpdatedAt,
	}, true, nil
}

// Put stores w with the configured TTL.
func (c *Cache) Put(ctx context.Context, w Wallet) error {
	payload, err := json.Marshal(cachedWallet{
		ID:             w.ID.String(),
		Balance:        w.Balance.String(),
		OwnerFirstName: w.OwnerFirstName,
		OwnerLastName:  w.OwnerLastName,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(w.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for id.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

func cacheKey(id uuid.UUID) string {
	return cachePrefix + id.String()
}
