package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("BANK_002", "Insufficient funds in wallet", http.StatusPaymentRequired)
	assert.Equal(t, "[BANK_002] Insufficient funds in wallet", e.Error())

	inner := errors.New("connection refused")
	wrapped := Wrap("SYS_001", "Ledger storage failure", http.StatusInternalServerError, inner)
	assert.Equal(t, "[SYS_001] Ledger storage failure: connection refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("timeout")
	e := ErrStorageFailure(inner)
	assert.ErrorIs(t, e, inner)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("handling request: %w", e), &appErr))
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestErrorConstructors_Codes(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrInvalidAmount(nil), "BANK_001", http.StatusBadRequest},
		{ErrInsufficientWalletFunds(), "BANK_002", http.StatusPaymentRequired},
		{ErrInsufficientBankFunds(), "BANK_003", http.StatusPaymentRequired},
		{ErrAccountNotFound(), "BANK_004", http.StatusNotFound},
		{ErrWalletOperationFailed(nil), "WAL_001", http.StatusBadGateway},
		{ErrPartialTransfer("wallet", nil), "FLT_001", http.StatusInternalServerError},
		{ErrInvalidAdminKey(), "SEC_001", http.StatusUnauthorized},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{ErrStorageFailure(nil), "SYS_001", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
	}
}

func TestErrPartialTransfer_NamesCommittedSide(t *testing.T) {
	e := ErrPartialTransfer("ledger", errors.New("economy unreachable"))
	assert.Contains(t, e.Message, "ledger side committed")
	assert.Contains(t, e.Message, "reconciliation")
}
