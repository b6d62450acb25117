package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/rent"
	"erent/internal/domain/shared/money"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestNewPending(t *testing.T) {
	p, err := NewPending(CreateParams{ID: "pay-1", Amount: money.EUR(12000), CustomerName: " Ana ", PaymentIntentID: "pi_1", StripeCustomerID: "cus_1", Now: now})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "card", p.Method)
	assert.Equal(t, "Ana", p.CustomerName)

	_, err = NewPending(CreateParams{Amount: money.EUR(0), CustomerName: "Ana"})
	assert.ErrorIs(t, err, ErrAmountRequired)
	_, err = NewPending(CreateParams{Amount: money.EUR(100)})
	assert.ErrorIs(t, err, ErrCustomerNameRequired)
}

func TestConfirm(t *testing.T) {
	p, err := NewPending(CreateParams{ID: "pay-1", Amount: money.EUR(12000), CustomerName: "Ana", Now: now})
	require.NoError(t, err)

	assert.ErrorIs(t, p.Confirm(nil, now), ErrRentRequired)

	r := &rent.Rent{ID: "r-1", TenantID: "tenant"}
	require.NoError(t, p.Confirm(r, now.Add(time.Minute)))
	assert.Equal(t, StatusSucceeded, p.Status)
	assert.Equal(t, rent.ID("r-1"), p.RentID)
	assert.Equal(t, "tenant", string(p.TenantID))
	require.NotNil(t, p.UpdatedAt)

	assert.ErrorIs(t, p.Confirm(r, now), ErrAlreadyConfirmed)
}
