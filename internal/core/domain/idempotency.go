package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord stores the serialized result of a completed transfer so
// that client retries return the original outcome instead of moving money a
// second time.
type IdempotencyRecord struct {
	Key          string    `json:"key"`
	PlayerID     uuid.UUID `json:"player_id"`
	Operation    string    `json:"operation"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildTransferIdempotencyKey scopes a client-supplied idempotency key to one
// operation on one player's account.
func BuildTransferIdempotencyKey(operation string, playerID uuid.UUID, clientKey string) string {
	return fmt.Sprintf("%s:%s:%s", operation, playerID.String(), clientKey)
}
