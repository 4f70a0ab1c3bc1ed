package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no wallet has the requested id.
	ErrNotFound = errors.New("wallet not found")
	// ErrExists is returned by Create for a duplicate id.
	ErrExists = errors.New("wallet exists")
)

// Store persists wallets. Find returns a fresh copy on every call.
type Store interface {
	Create(ctx context.Context, wallet Wallet) error
	Find(ctx context.Context, id uuid.UUID) (Wallet, error)
	Save(ctx context.Context, wallet Wallet) error
}

// NotFoundError builds the error reported for an unknown wallet id.
func NotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: wallet with id %s is not found", ErrNotFound, id)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO wallets (id, balance, owner_first_name, owner_last_name, created_at, updated_at)
        VALUES ($1, $2::numeric, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		wallet.ID, wallet.Balance.String(), wallet.OwnerFirstName, wallet.OwnerLastName,
		wallet.CreatedAt.UTC(), wallet.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

// Find fetches a wallet by identifier.
func (r *PostgresRepository) Find(ctx context.Context, id uuid.UUID) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, balance::text, owner_first_name, owner_last_name, created_at, updated_at
        FROM wallets WHERE id = $1`, id)
	var (
		w       Wallet
		balance string
	)
	if err := row.Scan(&w.ID, &balance, &w.OwnerFirstName, &w.OwnerLastName, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, NotFoundError(id)
		}
		return Wallet{}, fmt.Errorf("select wallet: %w", err)
	}
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("decode balance %q: %w", balance, err)
	}
	w.Balance = amount
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

// Save writes the wallet balance back.
func (r *PostgresRepository) Save(ctx context.Context, wallet Wallet) error {
	updatedAt := wallet.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	cmd, err := r.db.Exec(ctx, `UPDATE wallets SET balance = $2::numeric, updated_at = $3 WHERE id = $1`,
		wallet.ID, wallet.Balance.String(), updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return NotFoundError(wallet.ID)
	}
	return nil
}
