package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	httpHandler "player-bank-service/internal/adapter/http/handler"
	redisStorage "player-bank-service/internal/adapter/storage/redis"
	"player-bank-service/internal/service"
	"player-bank-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminKey = "test-admin-service-key"

// testApp builds the full application stack: real HTTP layer, middleware,
// handlers, and engine, backed by in-memory repos, a fake wallet provider,
// and miniredis.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	ledgerRepo *inMemoryLedgerRepo
	faultRepo  *inMemoryFaultRepo
	wallet     *fakeWalletProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	ledgerRepo := newInMemoryLedgerRepo()
	faultRepo := newInMemoryFaultRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	walletProvider := newFakeWalletProvider()
	transactor := newLockingTransactor()

	log := logger.New("error", false)
	hashSvc := service.NewArgon2HashService()
	adminKeyHash, err := hashSvc.Hash(testAdminKey)
	require.NoError(t, err)

	bankSvc := service.NewBankService(
		ledgerRepo, walletProvider, faultRepo,
		idempotencyRepo, idempotencyCache, transactor, log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		BankSvc:        bankSvc,
		HashSvc:        hashSvc,
		AdminKeyHash:   adminKeyHash,
		RateLimitStore: rateLimitStore,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	app := &testApp{
		server:     server,
		redis:      mr,
		ledgerRepo: ledgerRepo,
		faultRepo:  faultRepo,
		wallet:     walletProvider,
	}
	t.Cleanup(func() {
		server.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return app
}

type apiResult struct {
	status int
	body   map[string]any
}

func (a *testApp) do(t *testing.T, method, path string, body map[string]any, admin bool) apiResult {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("X-Admin-Key", testAdminKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return apiResult{status: resp.StatusCode, body: decoded}
}

func (a *testApp) deposit(t *testing.T, playerID uuid.UUID, amount string) apiResult {
	return a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/players/%s/deposit", playerID), map[string]any{"amount": amount}, false)
}

func (a *testApp) withdraw(t *testing.T, playerID uuid.UUID, amount string) apiResult {
	return a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/players/%s/withdraw", playerID), map[string]any{"amount": amount}, false)
}

func (a *testApp) balance(t *testing.T, playerID uuid.UUID) apiResult {
	return a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/players/%s/balance", playerID), nil, false)
}

func dataField(t *testing.T, res apiResult, field string) any {
	t.Helper()
	data, ok := res.body["data"].(map[string]any)
	require.True(t, ok, "response has no data envelope: %v", res.body)
	return data[field]
}

func errorCode(res apiResult) string {
	code, _ := res.body["error_code"].(string)
	return code
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// --- Integration Tests ---

func TestIntegration_TransferLifecycle(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "150.00"))

	// Deposit 100: wallet 150 -> 50, bank 0 -> 100.
	res := app.deposit(t, playerID, "100.00")
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, "100.00", dataField(t, res, "bank_balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "50.00")))

	// Withdraw 30: bank 100 -> 70, wallet 50 -> 80.
	res = app.withdraw(t, playerID, "30.00")
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, "70.00", dataField(t, res, "bank_balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "80.00")))

	// Admin give 20: bank 70 -> 90. No wallet movement.
	res = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/players/%s/give", playerID), map[string]any{"amount": "20.00"}, true)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "90.00", dataField(t, res, "bank_balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "80.00")))

	// Admin take 200: floors at zero.
	res = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/players/%s/take", playerID), map[string]any{"amount": "200.00"}, true)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "0.00", dataField(t, res, "bank_balance"))

	res = app.balance(t, playerID)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "0.00", dataField(t, res, "balance"))
	assert.Equal(t, true, dataField(t, res, "exists"))
}

func TestIntegration_BalanceOfUnknownPlayer(t *testing.T) {
	app := newTestApp(t)

	res := app.balance(t, uuid.New())
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "0.00", dataField(t, res, "balance"))
	assert.Equal(t, false, dataField(t, res, "exists"))
}

func TestIntegration_InsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "10.00"))

	res := app.deposit(t, playerID, "10.01")
	assert.Equal(t, http.StatusPaymentRequired, res.status)
	assert.Equal(t, "BANK_002", errorCode(res))

	res = app.withdraw(t, playerID, "0.01")
	assert.Equal(t, http.StatusPaymentRequired, res.status)
	assert.Equal(t, "BANK_003", errorCode(res))

	// Nothing moved on either side.
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "10.00")))
}

func TestIntegration_DepositIdempotencyReplay(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "500.00"))

	body := map[string]any{"amount": "100.00", "idempotency_key": "order-42"}
	path := fmt.Sprintf("/api/v1/players/%s/deposit", playerID)

	first := app.do(t, http.MethodPost, path, body, false)
	require.Equal(t, http.StatusCreated, first.status)

	second := app.do(t, http.MethodPost, path, body, false)
	require.Equal(t, http.StatusOK, second.status)
	assert.Equal(t, true, dataField(t, second, "replayed"))
	assert.Equal(t, "100.00", dataField(t, second, "bank_balance"))

	// The retry must not move funds again.
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "400.00")))
}

func TestIntegration_WithdrawFaultWindow(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "200.00"))

	res := app.deposit(t, playerID, "100.00")
	require.Equal(t, http.StatusCreated, res.status)

	// Wallet provider goes down between the ledger debit and the wallet
	// credit.
	app.wallet.setFailDeposits(true)
	res = app.withdraw(t, playerID, "40.00")
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "FLT_001", errorCode(res))

	// The ledger side committed: balance is down, wallet untouched, and the
	// fault journal names the committed side.
	balRes := app.balance(t, playerID)
	assert.Equal(t, "60.00", dataField(t, balRes, "balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "100.00")))

	faults := app.faultRepo.all()
	require.Len(t, faults, 1)
	assert.Equal(t, playerID, faults[0].PlayerID)
	assert.Equal(t, "withdraw", faults[0].Operation)
	assert.Equal(t, "ledger", string(faults[0].CommittedSide))
	assert.True(t, faults[0].Amount.Equal(mustDec(t, "40.00")))
}

func TestIntegration_AdminSurfaceRequiresKey(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()

	res := app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/players/%s/balance", playerID), map[string]any{"amount": "50.00"}, false)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "SEC_001", errorCode(res))

	res = app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/players/%s/balance", playerID), map[string]any{"amount": "50.00"}, true)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "50.00", dataField(t, res, "bank_balance"))
}

func TestIntegration_AmountValidationAtTheEdge(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "100.00"))

	for _, amount := range []string{"0", "-5", "12.345", "abc"} {
		res := app.deposit(t, playerID, amount)
		assert.Equal(t, http.StatusBadRequest, res.status, "amount %q", amount)
	}

	// Trailing zeros beyond 2 places are fine when the value fits the scale.
	res := app.deposit(t, playerID, "12.30")
	assert.Equal(t, http.StatusCreated, res.status)
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
