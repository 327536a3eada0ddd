package dto

// TransferRequest is the request body for deposits and withdrawals. Amount
// travels as a string so clients cannot smuggle float rounding into the
// ledger.
type TransferRequest struct {
	Amount         string  `json:"amount" binding:"required,money"`
	IdempotencyKey *string `json:"idempotency_key,omitempty" binding:"omitempty,min=1,max=100,safe_id"`
}

// AdminAmountRequest is the request body for admin balance operations.
type AdminAmountRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

// TransferResponse is the response body for completed transfers and admin
// operations.
type TransferResponse struct {
	PlayerID    string `json:"player_id"`
	Operation   string `json:"operation"`
	Amount      string `json:"amount"`
	BankBalance string `json:"bank_balance"`
	Replayed    bool   `json:"replayed,omitempty"`
}

// BalanceResponse is the response body for balance queries.
type BalanceResponse struct {
	PlayerID string `json:"player_id"`
	Balance  string `json:"balance"`
	Exists   bool   `json:"exists"`
}
