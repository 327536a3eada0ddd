package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount contract: finite decimal, at most 2 fractional digits, and small
// enough to fit NUMERIC(18,2). Callers validate before invoking the engine,
// but the engine re-checks; violations are never silently truncated.

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountNegative    = errors.New("amount must not be negative")
	ErrAmountPrecision   = errors.New("amount must have at most 2 decimal digits")
	ErrAmountTooLarge    = errors.New("amount exceeds the maximum supported value")
)

// maxAmount is the exclusive upper bound imposed by the NUMERIC(18,2) column.
var maxAmount = decimal.New(1, 16)

// ParseAmount parses a user-supplied amount string into a decimal and
// validates it as a strictly positive transfer amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks an already-parsed amount against the transfer
// contract: strictly positive, at most 2 decimal digits, within range.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrAmountNotPositive
	}
	return checkScaleAndRange(d)
}

// ValidateSetAmount is ValidateAmount with zero allowed. Admin set may
// legitimately reset a balance to zero.
func ValidateSetAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrAmountNegative
	}
	return checkScaleAndRange(d)
}

func checkScaleAndRange(d decimal.Decimal) error {
	if d.Exponent() < -2 && !d.Equal(d.Truncate(2)) {
		return ErrAmountPrecision
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}
