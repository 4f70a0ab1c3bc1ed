package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletops/internal/validation"
)

// Service exposes the read side of wallets and wallet provisioning. Balance
// mutations go through the operation engine, never through this type.
type Service struct {
	store  Store
	cache  *Cache
	logger *slog.Logger
}

// NewService builds a wallet service. cache may be nil.
func NewService(store Store, cache *Cache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// CreateInput captures data required to create a wallet. InitialBalance is
// optional and textual so it is parsed exactly.
type CreateInput struct {
	OwnerFirstName string
	OwnerLastName  string
	InitialBalance string
}

// Create provisions a wallet with a fresh id.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	first, err := validation.ParseOwnerName("ownerFirstName", input.OwnerFirstName)
	if err != nil {
		return Wallet{}, err
	}
	last, err := validation.ParseOwnerName("ownerLastName", input.OwnerLastName)
	if err != nil {
		return Wallet{}, err
	}

	balance := decimal.Zero
	if strings.TrimSpace(input.InitialBalance) != "" {
		if balance, err = validation.ParseBalance(input.InitialBalance); err != nil {
			return Wallet{}, err
		}
	}

	now := time.Now().UTC()
	wallet := Wallet{
		ID:             uuid.New(),
		Balance:        balance,
		OwnerFirstName: first,
		OwnerLastName:  last,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}
	s.Committed(ctx, wallet)

	s.logger.Info("wallet created", slog.String("wallet_id", wallet.ID.String()))
	return wallet, nil
}

// Get returns the latest committed wallet state, from cache when possible.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Wallet, error) {
	if s.cache != nil {
		w, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("wallet cache read failed", slog.String("wallet_id", id.String()), slog.Any("error", err))
		} else if ok {
			return w, nil
		}
	}
	w, err := s.store.Find(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("wallet lookup failed", slog.String("wallet_id", id.String()), slog.Any("error", err))
		}
		return Wallet{}, err
	}
	return w, nil
}

// Committed refreshes the cache with a freshly persisted wallet. Callers
// invoke it while still holding the wallet's lock so refreshes land in
// commit order. A failed refresh falls back to dropping the entry.
func (s *Service) Committed(ctx context.Context, w Wallet) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, w); err != nil {
		s.logger.Warn("wallet cache refresh failed", slog.String("wallet_id", w.ID.String()), slog.Any("error", err))
		if err := s.cache.Invalidate(ctx, w.ID); err != nil {
			s.logger.Error("wallet cache invalidation failed", slog.String("wallet_id", w.ID.String()), slog.Any("error", err))
		}
	}
}
