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
)

// BankHandler handles player-facing transfer and balance endpoints.
type BankHandler struct {
	bankSvc ports.BankService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankSvc ports.BankService) *BankHandler {
	return &BankHandler{bankSvc: bankSvc}
}

// Deposit handles POST /api/v1/players/:player_id/deposit.
func (h *BankHandler) Deposit(c *gin.Context) {
	h.transfer(c, h.bankSvc.Deposit)
}

// Withdraw handles POST /api/v1/players/:player_id/withdraw.
func (h *BankHandler) Withdraw(c *gin.Context) {
	h.transfer(c, h.bankSvc.Withdraw)
}

// GetBalance handles GET /api/v1/players/:player_id/balance.
func (h *BankHandler) GetBalance(c *gin.Context) {
	playerID, err := parsePlayerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.bankSvc.GetBalance(c.Request.Context(), playerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		PlayerID: result.PlayerID.String(),
		Balance:  result.Balance.StringFixed(2),
		Exists:   result.Exists,
	})
}

type transferFunc func(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error)

func (h *BankHandler) transfer(c *gin.Context, do transferFunc) {
	playerID, err := parsePlayerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err))
		return
	}

	transferReq := ports.TransferRequest{PlayerID: playerID, Amount: amount}
	if req.IdempotencyKey != nil {
		transferReq.IdempotencyKey = *req.IdempotencyKey
	}

	result, err := do(c.Request.Context(), transferReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	// A replayed transfer reports the original outcome rather than a new one.
	if result.Replayed {
		response.OK(c, toTransferResponse(result))
		return
	}
	response.Created(c, toTransferResponse(result))
}

// parsePlayerID extracts and validates the player UUID from the route.
func parsePlayerID(c *gin.Context) (uuid.UUID, error) {
	playerID, err := uuid.Parse(c.Param("player_id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("player_id must be a valid UUID")
	}
	return playerID, nil
}

// toTransferResponse converts an engine result to the wire DTO. Balances are
// rendered with exactly 2 decimal places.
func toTransferResponse(result *ports.TransferResult) dto.TransferResponse {
	return dto.TransferResponse{
		PlayerID:    result.PlayerID.String(),
		Operation:   result.Operation,
		Amount:      result.Amount.StringFixed(2),
		BankBalance: result.BankBalance.StringFixed(2),
		Replayed:    result.Replayed,
	}
}
