package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"player-bank-service/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 5 * time.Second

// Client implements ports.WalletProvider against the game-economy service's
// HTTP API. Amounts travel as string-encoded decimals. The economy service
// owns wallet-side concurrency; this client only bounds each call.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a wallet provider client from config.
func NewClient(cfg config.WalletConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type transferRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// GetBalance returns the player's current wallet balance.
func (c *Client) GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v1/accounts/%s/balance", c.baseURL, playerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build wallet balance request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet balance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("wallet balance request: unexpected status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode wallet balance: %w", err)
	}
	return body.Balance, nil
}

// Withdraw removes amount from the player's wallet.
func (c *Client) Withdraw(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	return c.post(ctx, playerID, "withdraw", amount)
}

// Deposit adds amount to the player's wallet.
func (c *Client) Deposit(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	return c.post(ctx, playerID, "deposit", amount)
}

func (c *Client) post(ctx context.Context, playerID uuid.UUID, action string, amount decimal.Decimal) error {
	url := fmt.Sprintf("%s/api/v1/accounts/%s/%s", c.baseURL, playerID, action)

	payload, err := json.Marshal(transferRequest{Amount: amount})
	if err != nil {
		return fmt.Errorf("marshal wallet %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build wallet %s request: %w", action, err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wallet %s request: %w", action, err)
	}
	defer resp.Body.Close()

	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode wallet %s response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK || !body.OK {
		c.log.Warn().
			Str("player_id", playerID.String()).
			Str("action", action).
			Int("status", resp.StatusCode).
			Str("provider_error", body.Error).
			Msg("wallet provider rejected operation")
		if body.Error != "" {
			return fmt.Errorf("wallet %s rejected: %s", action, body.Error)
		}
		return fmt.Errorf("wallet %s rejected: status %d", action, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
