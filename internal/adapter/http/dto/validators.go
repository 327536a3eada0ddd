package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// Non-negative decimal with at most 2 fractional digits. The sign and
	// precision rules this pre-screens are re-checked in the domain layer;
	// rejecting malformed input here keeps garbage out of decimal parsing.
	moneyRe = regexp.MustCompile(`^[0-9]{1,16}(\.[0-9]{1,2})?$`)

	safeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("money", validateMoney)
		_ = v.RegisterValidation("safe_id", validateSafeID)
	}
}

func validateMoney(fl validator.FieldLevel) bool {
	return moneyRe.MatchString(fl.Field().String())
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeIDRe.MatchString(fl.Field().String())
}
