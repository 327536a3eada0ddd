package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"player-bank-service/internal/core/ports"
	"player-bank-service/internal/core/ports/mocks"
	"player-bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type handlerTestDeps struct {
	router  http.Handler
	bankSvc *mocks.MockBankService
	hashSvc *mocks.MockHashService
	ctrl    *gomock.Controller
}

func setupRouter(t *testing.T) *handlerTestDeps {
	ctrl := gomock.NewController(t)
	d := &handlerTestDeps{
		bankSvc: mocks.NewMockBankService(ctrl),
		hashSvc: mocks.NewMockHashService(ctrl),
		ctrl:    ctrl,
	}
	d.router = SetupRouter(RouterDeps{
		BankSvc:      d.bankSvc,
		HashSvc:      d.hashSvc,
		AdminKeyHash: "$argon2id$...hash",
		Logger:       zerolog.Nop(),
	})
	return d
}

func doJSON(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestBankHandler_Deposit_Success(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.bankSvc.EXPECT().Deposit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req ports.TransferRequest) (*ports.TransferResult, error) {
			assert.Equal(t, playerID, req.PlayerID)
			assert.True(t, req.Amount.Equal(mustDec(t, "100.00")))
			assert.Equal(t, "retry-1", req.IdempotencyKey)
			return &ports.TransferResult{
				PlayerID:    playerID,
				Operation:   "deposit",
				Amount:      req.Amount,
				BankBalance: mustDec(t, "100.00"),
			}, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/players/"+playerID.String()+"/deposit",
		`{"amount":"100.00","idempotency_key":"retry-1"}`, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			BankBalance string `json:"bank_balance"`
			Operation   string `json:"operation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "100.00", envelope.Data.BankBalance)
	assert.Equal(t, "deposit", envelope.Data.Operation)
}

func TestBankHandler_Deposit_Replayed(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.bankSvc.EXPECT().Deposit(gomock.Any(), gomock.Any()).Return(&ports.TransferResult{
		PlayerID:    playerID,
		Operation:   "deposit",
		Amount:      mustDec(t, "100.00"),
		BankBalance: mustDec(t, "100.00"),
		Replayed:    true,
	}, nil)

	w := doJSON(d.router, http.MethodPost, "/api/v1/players/"+playerID.String()+"/deposit",
		`{"amount":"100.00","idempotency_key":"retry-1"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"replayed":true`)
}

func TestBankHandler_Deposit_MalformedAmount(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	for _, body := range []string{
		`{"amount":"-5"}`,
		`{"amount":"1.234"}`,
		`{"amount":"abc"}`,
		`{"amount":100.5}`,
		`{}`,
	} {
		w := doJSON(d.router, http.MethodPost, "/api/v1/players/"+playerID.String()+"/deposit", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s should be rejected", body)
	}
}

func TestBankHandler_Deposit_ZeroAmountRejected(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	// "0" passes the wire format check but fails the positivity rule.
	playerID := uuid.New()
	w := doJSON(d.router, http.MethodPost, "/api/v1/players/"+playerID.String()+"/deposit",
		`{"amount":"0"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BANK_001")
}

func TestBankHandler_Deposit_BadPlayerID(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	w := doJSON(d.router, http.MethodPost, "/api/v1/players/not-a-uuid/deposit",
		`{"amount":"10.00"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBankHandler_Withdraw_InsufficientBankFunds(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.bankSvc.EXPECT().Withdraw(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBankFunds())

	w := doJSON(d.router, http.MethodPost, "/api/v1/players/"+playerID.String()+"/withdraw",
		`{"amount":"30.00"}`, nil)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "BANK_003")
}

func TestBankHandler_GetBalance(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.bankSvc.EXPECT().GetBalance(gomock.Any(), playerID).Return(&ports.BalanceResult{
		PlayerID: playerID,
		Balance:  mustDec(t, "42.50"),
		Exists:   true,
	}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/players/"+playerID.String()+"/balance", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"42.50"`)
	assert.Contains(t, w.Body.String(), `"exists":true`)
}

func TestBankHandler_GetBalance_NoAccount(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.bankSvc.EXPECT().GetBalance(gomock.Any(), playerID).Return(&ports.BalanceResult{
		PlayerID: playerID,
		Balance:  decimal.Zero,
		Exists:   false,
	}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/players/"+playerID.String()+"/balance", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"exists":false`)
}

func TestAdminHandler_RequiresKey(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	w := doJSON(d.router, http.MethodPost, "/api/v1/admin/players/"+playerID.String()+"/give",
		`{"amount":"20.00"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SEC_001")
}

func TestAdminHandler_Give_Success(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.hashSvc.EXPECT().Verify("admin-key", "$argon2id$...hash").Return(true, nil)
	d.bankSvc.EXPECT().AdminGive(gomock.Any(), playerID, gomock.Any()).DoAndReturn(
		func(_ any, _ uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error) {
			assert.True(t, amount.Equal(mustDec(t, "20.00")))
			return &ports.TransferResult{
				PlayerID:    playerID,
				Operation:   "admin_give",
				Amount:      amount,
				BankBalance: mustDec(t, "90.00"),
			}, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/admin/players/"+playerID.String()+"/give",
		`{"amount":"20.00"}`, map[string]string{"X-Admin-Key": "admin-key"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bank_balance":"90.00"`)
}

func TestAdminHandler_SetBalance_ZeroAllowed(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.hashSvc.EXPECT().Verify("admin-key", "$argon2id$...hash").Return(true, nil)
	d.bankSvc.EXPECT().AdminSet(gomock.Any(), playerID, gomock.Any()).DoAndReturn(
		func(_ any, _ uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error) {
			assert.True(t, amount.IsZero())
			return &ports.TransferResult{
				PlayerID:    playerID,
				Operation:   "admin_set",
				Amount:      amount,
				BankBalance: amount,
			}, nil
		})

	w := doJSON(d.router, http.MethodPut, "/api/v1/admin/players/"+playerID.String()+"/balance",
		`{"amount":"0"}`, map[string]string{"X-Admin-Key": "admin-key"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_Take_PartialTransferSurface(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	playerID := uuid.New()
	d.hashSvc.EXPECT().Verify("admin-key", "$argon2id$...hash").Return(true, nil)
	d.bankSvc.EXPECT().AdminTake(gomock.Any(), playerID, gomock.Any()).Return(
		nil, apperror.ErrStorageFailure(assert.AnError))

	w := doJSON(d.router, http.MethodPost, "/api/v1/admin/players/"+playerID.String()+"/take",
		`{"amount":"10.00"}`, map[string]string{"X-Admin-Key": "admin-key"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}

func TestHealthCheck_Degraded(t *testing.T) {
	d := setupRouter(t)
	defer d.ctrl.Finish()

	// No checkers registered: healthy by definition.
	w := doJSON(d.router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
