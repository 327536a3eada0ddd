package integration

import (
	"context"
	"fmt"
	"sync"

	"player-bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]decimal.Decimal
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (r *inMemoryLedgerRepo) GetBalance(ctx context.Context, playerID uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balance, ok := r.balances[playerID]
	if !ok {
		return nil, nil
	}
	return &domain.Account{PlayerID: playerID, Balance: balance}, nil
}

func (r *inMemoryLedgerRepo) GetBalanceForUpdate(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (*domain.Account, error) {
	// Row locking is provided by the locking transactor the test wires in.
	return r.GetBalance(ctx, playerID)
}

func (r *inMemoryLedgerRepo) UpsertAdd(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	newBalance := r.balances[playerID].Add(delta)
	if newBalance.IsNegative() {
		// Mirrors the NUMERIC CHECK constraint on the real table.
		return decimal.Zero, fmt.Errorf("balance check constraint violated")
	}
	r.balances[playerID] = newBalance
	return newBalance, nil
}

func (r *inMemoryLedgerRepo) SetBalance(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, value decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[playerID] = value
	return nil
}

// --- In-Memory Fault Repo ---

type inMemoryFaultRepo struct {
	mu     sync.RWMutex
	faults []domain.TransferFault
}

func newInMemoryFaultRepo() *inMemoryFaultRepo {
	return &inMemoryFaultRepo{}
}

func (r *inMemoryFaultRepo) Create(ctx context.Context, fault *domain.TransferFault) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, *fault)
	return nil
}

func (r *inMemoryFaultRepo) all() []domain.TransferFault {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TransferFault, len(r.faults))
	copy(out, r.faults)
	return out
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Key] = rec
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// --- Fake Wallet Provider ---

// fakeWalletProvider mimics the external game economy. Withdraw enforces
// sufficiency atomically, as the real provider would; failDeposits simulates
// an outage on the credit path to drive the partial-transfer fault window.
type fakeWalletProvider struct {
	mu           sync.RWMutex
	balances     map[uuid.UUID]decimal.Decimal
	failDeposits bool
}

func newFakeWalletProvider() *fakeWalletProvider {
	return &fakeWalletProvider{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (w *fakeWalletProvider) setBalance(playerID uuid.UUID, balance decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[playerID] = balance
}

func (w *fakeWalletProvider) balance(playerID uuid.UUID) decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances[playerID]
}

func (w *fakeWalletProvider) setFailDeposits(fail bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failDeposits = fail
}

func (w *fakeWalletProvider) GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances[playerID], nil
}

func (w *fakeWalletProvider) Withdraw(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[playerID].LessThan(amount) {
		return fmt.Errorf("insufficient wallet funds")
	}
	w.balances[playerID] = w.balances[playerID].Sub(amount)
	return nil
}

func (w *fakeWalletProvider) Deposit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failDeposits {
		return fmt.Errorf("wallet provider unavailable")
	}
	w.balances[playerID] = w.balances[playerID].Add(amount)
	return nil
}

// --- Locking Transactor ---

// lockingTransactor serializes transactions behind one mutex, standing in
// for the row lock SELECT FOR UPDATE takes in PostgreSQL. The lock is held
// from Begin until the first Commit or Rollback.
type lockingTransactor struct {
	mu sync.Mutex
}

func newLockingTransactor() *lockingTransactor {
	return &lockingTransactor{}
}

func (t *lockingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &lockedTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// lockedTx is a pgx.Tx that releases the transactor lock exactly once, on
// whichever of Commit/Rollback runs first.
type lockedTx struct {
	once    sync.Once
	release func()
}

func (t *lockedTx) Commit(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func (t *lockedTx) Rollback(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }
