package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is one row of the bank ledger: a player's persisted bank balance,
// kept separate from the wallet the game economy manages.
type Account struct {
	PlayerID  uuid.UUID       `json:"player_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
