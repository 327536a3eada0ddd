package postgres

import (
	"context"
	"errors"
	"fmt"

	"player-bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerRepo implements ports.LedgerRepository. One row per player; all
// arithmetic happens in SQL against the NUMERIC column so concurrent
// writers serialize on the row lock rather than interleaving.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// GetBalance fetches a player's account without locking.
// Returns nil, nil when the player has no account yet.
func (r *LedgerRepo) GetBalance(ctx context.Context, playerID uuid.UUID) (*domain.Account, error) {
	query := `SELECT player_id, balance, created_at, updated_at
		FROM player_balances WHERE player_id = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&a.PlayerID, &a.Balance, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return a, nil
}

// GetBalanceForUpdate fetches a player's account with a pessimistic row
// lock. MUST be called within a transaction; the lock holds until commit or
// rollback, which is what linearizes check-then-update sequences per account.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (*domain.Account, error) {
	query := `SELECT player_id, balance, created_at, updated_at
		FROM player_balances WHERE player_id = $1 FOR UPDATE`

	a := &domain.Account{}
	err := tx.QueryRow(ctx, query, playerID).Scan(
		&a.PlayerID, &a.Balance, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return a, nil
}

// UpsertAdd creates the account with balance=delta or adds delta to the
// existing balance, returning the resulting balance. Negative deltas are
// only issued after the caller verified sufficiency under the row lock.
func (r *LedgerRepo) UpsertAdd(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `INSERT INTO player_balances (player_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET balance = player_balances.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance`

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, query, playerID, delta).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("upsert add balance: %w", err)
	}
	return balance, nil
}

// SetBalance creates or overwrites the account balance unconditionally.
func (r *LedgerRepo) SetBalance(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, value decimal.Decimal) error {
	query := `INSERT INTO player_balances (player_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, playerID, value); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
