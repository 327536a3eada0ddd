package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletProvider is the external game-economy service that holds each
// player's spendable currency. The engine does not lock around it; the
// provider is assumed to be safe under concurrent calls for one account.
type WalletProvider interface {
	// GetBalance returns the player's current wallet balance.
	GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error)
	// Withdraw removes amount from the player's wallet. An error means
	// nothing was removed.
	Withdraw(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error
	// Deposit adds amount to the player's wallet. An error means nothing
	// was added.
	Deposit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error
}

// --- Service Ports (Business Logic) ---

// BankService is the balance-transfer engine: it moves value between the
// external wallet and the bank ledger while conserving total value and
// keeping every bank balance non-negative.
type BankService interface {
	Deposit(ctx context.Context, req TransferRequest) (*TransferResult, error)
	Withdraw(ctx context.Context, req TransferRequest) (*TransferResult, error)
	AdminSet(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*TransferResult, error)
	AdminGive(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*TransferResult, error)
	AdminTake(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*TransferResult, error)
	GetBalance(ctx context.Context, playerID uuid.UUID) (*BalanceResult, error)
}

// TransferRequest holds validated input for a deposit or withdrawal.
type TransferRequest struct {
	PlayerID       uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string // optional client retry key; empty disables idempotency
}

// TransferResult reports the outcome of a successful engine operation.
type TransferResult struct {
	PlayerID    uuid.UUID       `json:"player_id"`
	Operation   string          `json:"operation"`
	Amount      decimal.Decimal `json:"amount"`
	BankBalance decimal.Decimal `json:"bank_balance"`
	Replayed    bool            `json:"replayed"` // served from an idempotency record
}

// BalanceResult reports a bank balance query. Exists distinguishes "no
// account yet" from an account holding zero.
type BalanceResult struct {
	PlayerID uuid.UUID       `json:"player_id"`
	Balance  decimal.Decimal `json:"balance"`
	Exists   bool            `json:"exists"`
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HashService handles secret hashing (Argon2id); used to verify the admin
// service key against the hash carried in config.
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}
