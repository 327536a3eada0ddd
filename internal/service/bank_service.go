package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"player-bank-service/internal/core/domain"
	"player-bank-service/internal/core/ports"
	"player-bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	opDeposit   = "deposit"
	opWithdraw  = "withdraw"
	opAdminSet  = "admin_set"
	opAdminGive = "admin_give"
	opAdminTake = "admin_take"

	idempotencyTTL = 24 * time.Hour
)

// BankServiceImpl implements ports.BankService: the engine that moves value
// between the external wallet and the bank ledger.
//
// Deposit and Withdraw span two stores that share no transaction boundary.
// Each is ordered so the only unrecoverable failure window is a single step
// wide, and a failure inside that window is journaled as a transfer fault
// for operator reconciliation rather than compensated automatically.
type BankServiceImpl struct {
	ledgerRepo ports.LedgerRepository
	wallet     ports.WalletProvider
	faultRepo  ports.FaultRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewBankService creates a new BankServiceImpl.
func NewBankService(
	ledgerRepo ports.LedgerRepository,
	wallet ports.WalletProvider,
	faultRepo ports.FaultRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *BankServiceImpl {
	return &BankServiceImpl{
		ledgerRepo: ledgerRepo,
		wallet:     wallet,
		faultRepo:  faultRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		log:        log,
	}
}

// Deposit moves amount from the player's wallet into their bank account.
// Ordering: wallet debit first, then ledger credit. A ledger failure after
// the wallet debit is the accepted fault window.
func (s *BankServiceImpl) Deposit(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, apperror.ErrInvalidAmount(err)
	}

	idempKey := s.idempotencyKey(opDeposit, req)
	if result, ok := s.replay(ctx, idempKey); ok {
		return result, nil
	}

	walletBalance, err := s.wallet.GetBalance(ctx, req.PlayerID)
	if err != nil {
		return nil, apperror.ErrWalletOperationFailed(fmt.Errorf("wallet balance: %w", err))
	}
	if walletBalance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientWalletFunds()
	}

	if err := s.wallet.Withdraw(ctx, req.PlayerID, req.Amount); err != nil {
		// Nothing moved yet; safe to abort.
		return nil, apperror.ErrWalletOperationFailed(fmt.Errorf("wallet withdraw: %w", err))
	}

	newBalance, err := s.creditLedger(ctx, req.PlayerID, req.Amount)
	if err != nil {
		// The wallet is already debited and the credit never landed. Do not
		// attempt a compensating wallet deposit: that call can fail too and
		// double the damage. Journal and surface for reconciliation.
		s.recordFault(ctx, req.PlayerID, opDeposit, req.Amount, domain.TransferSideWallet, err)
		return nil, apperror.ErrPartialTransfer(string(domain.TransferSideWallet), err)
	}

	result := &ports.TransferResult{
		PlayerID:    req.PlayerID,
		Operation:   opDeposit,
		Amount:      req.Amount,
		BankBalance: newBalance,
	}
	s.saveIdempotency(ctx, idempKey, req.PlayerID, opDeposit, result)

	s.log.Info().
		Str("player_id", req.PlayerID.String()).
		Str("amount", req.Amount.String()).
		Str("bank_balance", newBalance.String()).
		Msg("deposit completed")

	return result, nil
}

// Withdraw moves amount from the player's bank account back into their
// wallet. The sufficiency check and the debit run under one row lock, so two
// concurrent withdrawals for the same account cannot both pass the check.
// Ordering: ledger debit first, then wallet credit; a wallet failure after
// the commit is the accepted fault window.
func (s *BankServiceImpl) Withdraw(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, apperror.ErrInvalidAmount(err)
	}

	idempKey := s.idempotencyKey(opWithdraw, req)
	if result, ok := s.replay(ctx, idempKey); ok {
		return result, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.ledgerRepo.GetBalanceForUpdate(ctx, dbTx, req.PlayerID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lock account: %w", err))
	}
	if acct == nil || acct.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBankFunds()
	}

	newBalance, err := s.ledgerRepo.UpsertAdd(ctx, dbTx, req.PlayerID, req.Amount.Neg())
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("debit ledger: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.wallet.Deposit(ctx, req.PlayerID, req.Amount); err != nil {
		// The ledger is already debited and the wallet credit never landed.
		s.recordFault(ctx, req.PlayerID, opWithdraw, req.Amount, domain.TransferSideLedger, err)
		return nil, apperror.ErrPartialTransfer(string(domain.TransferSideLedger), err)
	}

	result := &ports.TransferResult{
		PlayerID:    req.PlayerID,
		Operation:   opWithdraw,
		Amount:      req.Amount,
		BankBalance: newBalance,
	}
	s.saveIdempotency(ctx, idempKey, req.PlayerID, opWithdraw, result)

	s.log.Info().
		Str("player_id", req.PlayerID.String()).
		Str("amount", req.Amount.String()).
		Str("bank_balance", newBalance.String()).
		Msg("withdrawal completed")

	return result, nil
}

// AdminSet overwrites the player's bank balance. Zero is allowed; no wallet
// interaction (privileged value injection/removal).
func (s *BankServiceImpl) AdminSet(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error) {
	if err := domain.ValidateSetAmount(amount); err != nil {
		return nil, apperror.ErrInvalidAmount(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.ledgerRepo.SetBalance(ctx, dbTx, playerID, amount); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("set balance: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("player_id", playerID.String()).
		Str("balance", amount.String()).
		Msg("admin set balance")

	return &ports.TransferResult{
		PlayerID:    playerID,
		Operation:   opAdminSet,
		Amount:      amount,
		BankBalance: amount,
	}, nil
}

// AdminGive adds amount to the player's bank balance with no sufficiency
// check and no wallet interaction.
func (s *BankServiceImpl) AdminGive(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, apperror.ErrInvalidAmount(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	newBalance, err := s.ledgerRepo.UpsertAdd(ctx, dbTx, playerID, amount)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("credit ledger: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("player_id", playerID.String()).
		Str("amount", amount.String()).
		Str("bank_balance", newBalance.String()).
		Msg("admin give completed")

	return &ports.TransferResult{
		PlayerID:    playerID,
		Operation:   opAdminGive,
		Amount:      amount,
		BankBalance: newBalance,
	}, nil
}

// AdminTake removes up to amount from the player's bank balance, flooring at
// zero. Taking more than the current balance empties the account; it is not
// an error.
func (s *BankServiceImpl) AdminTake(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, apperror.ErrInvalidAmount(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.ledgerRepo.GetBalanceForUpdate(ctx, dbTx, playerID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lock account: %w", err))
	}

	current := decimal.Zero
	if acct != nil {
		current = acct.Balance
	}
	newBalance := current.Sub(amount)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}

	if err := s.ledgerRepo.SetBalance(ctx, dbTx, playerID, newBalance); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("set balance: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("player_id", playerID.String()).
		Str("amount", amount.String()).
		Str("bank_balance", newBalance.String()).
		Msg("admin take completed")

	return &ports.TransferResult{
		PlayerID:    playerID,
		Operation:   opAdminTake,
		Amount:      amount,
		BankBalance: newBalance,
	}, nil
}

// GetBalance reports the player's bank balance. Exists is false when the
// player has no account yet (reported as zero for arithmetic purposes).
func (s *BankServiceImpl) GetBalance(ctx context.Context, playerID uuid.UUID) (*ports.BalanceResult, error) {
	acct, err := s.ledgerRepo.GetBalance(ctx, playerID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get balance: %w", err))
	}
	if acct == nil {
		return &ports.BalanceResult{PlayerID: playerID, Balance: decimal.Zero, Exists: false}, nil
	}
	return &ports.BalanceResult{PlayerID: playerID, Balance: acct.Balance, Exists: true}, nil
}

// creditLedger applies a positive delta inside its own short transaction.
func (s *BankServiceImpl) creditLedger(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	newBalance, err := s.ledgerRepo.UpsertAdd(ctx, dbTx, playerID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit ledger: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit tx: %w", err)
	}
	return newBalance, nil
}

// idempotencyKey builds the scoped key, or "" when the client sent none.
func (s *BankServiceImpl) idempotencyKey(operation string, req ports.TransferRequest) string {
	if req.IdempotencyKey == "" {
		return ""
	}
	return domain.BuildTransferIdempotencyKey(operation, req.PlayerID, req.IdempotencyKey)
}

// replay returns the recorded result of an earlier identical transfer, if
// any. Redis is the fast path; the durable record backs it.
func (s *BankServiceImpl) replay(ctx context.Context, idempKey string) (*ports.TransferResult, bool) {
	if idempKey == "" {
		return nil, false
	}

	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached == nil {
		rec, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("db idempotency check failed, treating as first attempt")
			return nil, false
		}
		if rec == nil {
			return nil, false
		}
		cached = rec.ResponseJSON
	}

	result := &ports.TransferResult{}
	if err := json.Unmarshal(cached, result); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("corrupt idempotency record, treating as first attempt")
		return nil, false
	}
	result.Replayed = true
	return result, true
}

// saveIdempotency records a fully completed transfer. Both writes are best
// effort: losing them only costs a client retry the replay shortcut.
func (s *BankServiceImpl) saveIdempotency(ctx context.Context, idempKey string, playerID uuid.UUID, operation string, result *ports.TransferResult) {
	if idempKey == "" {
		return
	}

	respJSON, err := json.Marshal(result)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to marshal transfer result for idempotency")
		return
	}

	rec := &domain.IdempotencyRecord{
		Key:          idempKey,
		PlayerID:     playerID,
		Operation:    operation,
		ResponseJSON: respJSON,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.idempRepo.Create(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to persist idempotency record")
	}
	if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency record")
	}
}

// recordFault journals a partial transfer and logs the reconciliation
// warning. The journal write itself is best effort; the log line is the
// backstop when even that fails.
func (s *BankServiceImpl) recordFault(ctx context.Context, playerID uuid.UUID, operation string, amount decimal.Decimal, side domain.TransferSide, cause error) {
	fault := &domain.TransferFault{
		ID:            uuid.New(),
		PlayerID:      playerID,
		Operation:     operation,
		Amount:        amount,
		CommittedSide: side,
		Cause:         cause.Error(),
		CreatedAt:     time.Now().UTC(),
	}

	event := s.log.Error().
		Str("player_id", playerID.String()).
		Str("operation", operation).
		Str("amount", amount.String()).
		Str("committed_side", string(side)).
		Err(cause)

	if err := s.faultRepo.Create(ctx, fault); err != nil {
		event.AnErr("journal_error", err).Msg("PARTIAL TRANSFER: fault journal write failed, reconcile from this log line")
		return
	}
	event.Str("fault_id", fault.ID.String()).Msg("PARTIAL TRANSFER: manual reconciliation required")
}
