package handler

import (
	"context"

	"player-bank-service/internal/adapter/http/dto"
	"player-bank-service/internal/core/domain"
	"player-bank-service/internal/core/ports"
	"player-bank-service/pkg/apperror"
	"player-bank-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdminHandler handles privileged balance manipulation endpoints.
type AdminHandler struct {
	bankSvc ports.BankService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bankSvc ports.BankService) *AdminHandler {
	return &AdminHandler{bankSvc: bankSvc}
}

// SetBalance handles PUT /api/v1/admin/players/:player_id/balance.
func (h *AdminHandler) SetBalance(c *gin.Context) {
	h.adminOp(c, h.bankSvc.AdminSet, true)
}

// Give handles POST /api/v1/admin/players/:player_id/give.
func (h *AdminHandler) Give(c *gin.Context) {
	h.adminOp(c, h.bankSvc.AdminGive, false)
}

// Take handles POST /api/v1/admin/players/:player_id/take.
func (h *AdminHandler) Take(c *gin.Context) {
	h.adminOp(c, h.bankSvc.AdminTake, false)
}

type adminFunc func(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) (*ports.TransferResult, error)

func (h *AdminHandler) adminOp(c *gin.Context, do adminFunc, zeroAllowed bool) {
	playerID, err := parsePlayerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.AdminAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal string"))
		return
	}
	if zeroAllowed {
		err = domain.ValidateSetAmount(amount)
	} else {
		err = domain.ValidateAmount(amount)
	}
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err))
		return
	}

	result, err := do(c.Request.Context(), playerID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransferResponse(result))
}
