package ports

import (
	"context"

	"player-bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerRepository defines persistence operations for the bank ledger.
// Methods accepting pgx.Tx run inside a transaction block so the row lock
// taken by GetBalanceForUpdate covers the subsequent write to the same row.
type LedgerRepository interface {
	// GetBalance returns the account, or nil if the player has no bank
	// account yet. Callers treat absent as zero for decision logic but
	// report "no account" distinctly.
	GetBalance(ctx context.Context, playerID uuid.UUID) (*domain.Account, error)
	// GetBalanceForUpdate reads the account with a pessimistic row lock.
	// MUST be called within a transaction.
	GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (*domain.Account, error)
	// UpsertAdd creates the account with balance=delta, or adds delta to the
	// existing balance, and returns the resulting balance. The caller is
	// responsible for sufficiency checks on negative deltas.
	UpsertAdd(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	// SetBalance creates or overwrites the account balance unconditionally.
	SetBalance(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, value decimal.Decimal) error
}

// FaultRepository persists partial-transfer fault journal entries for
// operator reconciliation.
type FaultRepository interface {
	Create(ctx context.Context, fault *domain.TransferFault) error
}

// IdempotencyRepository is the durable idempotency record store (DB backup
// behind the Redis fast path).
type IdempotencyRepository interface {
	Create(ctx context.Context, rec *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
