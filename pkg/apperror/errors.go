package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses. Every error in
// this service is caught at the operation boundary and reported this way;
// nothing here is fatal to the host process.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Bank Transfer Business Logic (BANK) ----

// ErrInvalidAmount rejects non-positive, non-finite, or over-precision
// amounts. No state changed.
func ErrInvalidAmount(err error) *AppError {
	return Wrap("BANK_001", "Invalid amount", http.StatusBadRequest, err)
}

// ErrInsufficientWalletFunds rejects a deposit larger than the wallet
// balance. No state changed.
func ErrInsufficientWalletFunds() *AppError {
	return New("BANK_002", "Insufficient funds in wallet", http.StatusPaymentRequired)
}

// ErrInsufficientBankFunds rejects a withdrawal larger than the bank
// balance. No state changed.
func ErrInsufficientBankFunds() *AppError {
	return New("BANK_003", "Insufficient funds in bank account", http.StatusPaymentRequired)
}

// ErrAccountNotFound reports a missing bank account where one is required.
func ErrAccountNotFound() *AppError {
	return New("BANK_004", "Bank account not found", http.StatusNotFound)
}

// ---- External Wallet Provider (WAL) ----

// ErrWalletOperationFailed reports a failed wallet provider call made before
// any ledger mutation; the operation aborted with no state changed.
func ErrWalletOperationFailed(err error) *AppError {
	return Wrap("WAL_001", "Wallet provider operation failed", http.StatusBadGateway, err)
}

// ---- Partial Transfer Faults (FLT) ----

// ErrPartialTransfer reports a transfer that mutated one pool and then
// failed before mutating the other. The message names the committed side so
// an operator can reconcile; there is no automatic compensation.
func ErrPartialTransfer(committedSide string, err error) *AppError {
	return Wrap(
		"FLT_001",
		fmt.Sprintf("Transfer partially applied: %s side committed, manual reconciliation required", committedSide),
		http.StatusInternalServerError,
		err,
	)
}

// ---- Security (SEC) ----

// ErrInvalidAdminKey rejects admin requests without a valid service key.
func ErrInvalidAdminKey() *AppError {
	return New("SEC_001", "Invalid admin service key", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrStorageFailure wraps a ledger I/O error. The failed write was not
// applied; callers must not assume partial application.
func ErrStorageFailure(err error) *AppError {
	return Wrap("SYS_001", "Ledger storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a BANK_001-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("BANK_001", message, http.StatusBadRequest)
}
