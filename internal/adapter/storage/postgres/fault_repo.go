package postgres

import (
	"context"
	"fmt"

	"player-bank-service/internal/core/domain"
)

// FaultRepo implements ports.FaultRepository. Partial-transfer faults are
// append-only; an operator (or a reconciliation job) reads the table
// directly.
type FaultRepo struct {
	pool Pool
}

// NewFaultRepo creates a new FaultRepo.
func NewFaultRepo(pool Pool) *FaultRepo {
	return &FaultRepo{pool: pool}
}

// Create inserts a fault journal entry.
func (r *FaultRepo) Create(ctx context.Context, fault *domain.TransferFault) error {
	query := `INSERT INTO transfer_faults (id, player_id, operation, amount, committed_side, cause, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		fault.ID, fault.PlayerID, fault.Operation, fault.Amount,
		string(fault.CommittedSide), fault.Cause, fault.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer fault: %w", err)
	}
	return nil
}
