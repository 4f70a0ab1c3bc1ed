package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/walletops/internal/keylock"
	"github.com/congo-pay/walletops/internal/metrics"
	"github.com/congo-pay/walletops/internal/notification"
	"github.com/congo-pay/walletops/internal/validation"
	"github.com/congo-pay/walletops/internal/wallet"
)

// Committer is told about every persisted wallet while its lock is held.
type Committer interface {
	Committed(ctx context.Context, w wallet.Wallet)
}

// Engine applies operations to wallets held in a store.
type Engine struct {
	store     wallet.Store
	locks     *keylock.Registry[uuid.UUID]
	committer Committer
	notifier  notification.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewEngine builds an engine. committer, notifier and m may be nil.
func NewEngine(store wallet.Store, locks *keylock.Registry[uuid.UUID], committer Committer, notifier notification.Notifier, logger *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:     store,
		locks:     locks,
		committer: committer,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Execute applies req under the wallet's lock. An unknown wallet returns
// wallet.ErrNotFound without touching the lock registry. Once the lock is
// held the operation runs to completion even if ctx is cancelled.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if _, err := e.store.Find(ctx, req.WalletID); err != nil {
		return Result{}, e.storeError(req.WalletID, "find", err)
	}

	unlock, err := e.locks.Lock(ctx, req.WalletID)
	if err != nil {
		return Result{}, fmt.Errorf("lock wallet %s: %w", req.WalletID, err)
	}
	defer func() {
		unlock()
		e.metrics.SetLockEntries(e.locks.Len())
	}()
	e.metrics.SetLockEntries(e.locks.Len())

	// cancellation is honoured up to here; past this point the operation
	// always runs to completion
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("lock wallet %s: %w", req.WalletID, err)
	}
	return e.apply(context.WithoutCancel(ctx), req)
}

// apply runs with the wallet lock held.
func (e *Engine) apply(ctx context.Context, req Request) (Result, error) {
	w, err := e.store.Find(ctx, req.WalletID)
	if err != nil {
		return Result{}, e.storeError(req.WalletID, "reload", err)
	}

	switch req.Type {
	case validation.Deposit:
		w.Balance = w.Balance.Add(req.Amount)
	case validation.Withdraw:
		if w.Balance.LessThan(req.Amount) {
			e.logger.Info("withdrawal declined",
				slog.String("wallet_id", req.WalletID.String()),
				slog.String("amount", req.Amount.String()),
				slog.String("balance", w.Balance.String()),
			)
			return Result{Type: req.Type, Outcome: OutcomeInsufficientBalance, Balance: w.Balance}, nil
		}
		w.Balance = w.Balance.Sub(req.Amount)
	}
	if w.Balance.IsNegative() {
		return Result{}, fmt.Errorf("%w: wallet %s would go negative", ErrFault, req.WalletID)
	}

	w.UpdatedAt = e.now().UTC()
	if err := e.store.Save(ctx, w); err != nil {
		e.logger.Error("wallet save failed", slog.String("wallet_id", req.WalletID.String()), slog.Any("error", err))
		return Result{}, fmt.Errorf("%w: save wallet %s: %w", ErrFault, req.WalletID, err)
	}
	if e.committer != nil {
		e.committer.Committed(ctx, w)
	}
	e.notify(ctx, req, w)

	return Result{Type: req.Type, Outcome: OutcomeApplied, Balance: w.Balance}, nil
}

func (e *Engine) storeError(id uuid.UUID, op string, err error) error {
	if errors.Is(err, wallet.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s wallet %s: %w", ErrFault, op, id, err)
}

func (e *Engine) notify(ctx context.Context, req Request, w wallet.Wallet) {
	if e.notifier == nil {
		return
	}
	kind := notification.KindDeposit
	if req.Type == validation.Withdraw {
		kind = notification.KindWithdraw
	}
	msg := notification.Message{
		Kind:        kind,
		Destination: w.ID.String(),
		Body: fmt.Sprintf("%s of %s applied, balance %s",
			req.Type, req.Amount.StringFixed(validation.AmountScale), w.Balance.StringFixed(wallet.DisplayScale)),
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		e.logger.Warn("notification failed", slog.String("wallet_id", w.ID.String()), slog.Any("error", err))
	}
}
