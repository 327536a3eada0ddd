package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferSide identifies which pool a partial transfer actually mutated.
type TransferSide string

const (
	// TransferSideWallet means the wallet was debited but the ledger was
	// never credited (deposit fault window).
	TransferSideWallet TransferSide = "wallet"
	// TransferSideLedger means the ledger was debited but the wallet was
	// never credited (withdraw fault window).
	TransferSideLedger TransferSide = "ledger"
)

// TransferFault is a journal entry for a transfer that mutated one pool and
// failed before mutating the other. There is no shared transaction between
// the wallet provider and the ledger, so these are recorded for operator
// reconciliation instead of being compensated automatically.
type TransferFault struct {
	ID            uuid.UUID       `json:"id"`
	PlayerID      uuid.UUID       `json:"player_id"`
	Operation     string          `json:"operation"` // "deposit" or "withdraw"
	Amount        decimal.Decimal `json:"amount"`
	CommittedSide TransferSide    `json:"committed_side"`
	Cause         string          `json:"cause"`
	CreatedAt     time.Time       `json:"created_at"`
}
