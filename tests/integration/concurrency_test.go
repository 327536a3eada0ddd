package integration

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two withdrawals racing for the same balance: the row lock makes the
// sufficiency check and the debit a single unit, so only one can win.
func TestConcurrency_CompetingWithdrawals(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "100.00"))

	res := app.deposit(t, playerID, "100.00")
	require.Equal(t, http.StatusCreated, res.status)

	const workers = 10
	results := make([]apiResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = app.withdraw(t, playerID, "60.00")
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, r := range results {
		switch r.status {
		case http.StatusCreated:
			succeeded++
		case http.StatusPaymentRequired:
			rejected++
			assert.Equal(t, "BANK_003", errorCode(r))
		default:
			t.Fatalf("unexpected status %d: %v", r.status, r.body)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one withdrawal may win")
	assert.Equal(t, workers-1, rejected)

	// 100 deposited, 60 withdrawn once: bank 40, wallet 60.
	balRes := app.balance(t, playerID)
	assert.Equal(t, "40.00", dataField(t, balRes, "balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "60.00")))
}

// Concurrent deposits for one player all land, and wallet plus bank still
// sum to the starting total.
func TestConcurrency_DepositsConserveValue(t *testing.T) {
	app := newTestApp(t)
	playerID := uuid.New()
	app.wallet.setBalance(playerID, mustDec(t, "1000.00"))

	const workers = 20
	var wg sync.WaitGroup
	results := make([]apiResult, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = app.deposit(t, playerID, "10.00")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.Equal(t, http.StatusCreated, r.status, "deposit %d failed: %v", i, r.body)
	}

	balRes := app.balance(t, playerID)
	assert.Equal(t, "200.00", dataField(t, balRes, "balance"))
	assert.True(t, app.wallet.balance(playerID).Equal(mustDec(t, "800.00")))
}

// Different players never contend on each other's funds.
func TestConcurrency_IndependentPlayers(t *testing.T) {
	app := newTestApp(t)

	const players = 8
	ids := make([]uuid.UUID, players)
	for i := range ids {
		ids[i] = uuid.New()
		app.wallet.setBalance(ids[i], mustDec(t, "50.00"))
	}

	var wg sync.WaitGroup
	errs := make([]error, players)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			if res := app.deposit(t, id, "50.00"); res.status != http.StatusCreated {
				errs[i] = fmt.Errorf("deposit for player %d got %d: %v", i, res.status, res.body)
				return
			}
			if res := app.withdraw(t, id, "20.00"); res.status != http.StatusCreated {
				errs[i] = fmt.Errorf("withdraw for player %d got %d: %v", i, res.status, res.body)
			}
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids {
		balRes := app.balance(t, id)
		assert.Equal(t, "30.00", dataField(t, balRes, "balance"))
		assert.True(t, app.wallet.balance(id).Equal(mustDec(t, "20.00")))
	}
}
