package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults to EUR", func(t *testing.T) {
		m, err := New(100, "")
		require.NoError(t, err)
		assert.Equal(t, "EUR", m.Currency)
	})
	t.Run("normalizes case", func(t *testing.T) {
		m, err := New(100, "usd")
		require.NoError(t, err)
		assert.Equal(t, "USD", m.Currency)
	})
	t.Run("rejects bad code", func(t *testing.T) {
		_, err := New(100, "EURO")
		assert.ErrorIs(t, err, ErrInvalidCurrency)
	})
}

func TestArithmetic(t *testing.T) {
	a := EUR(1050)
	b := EUR(250)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(800), diff.Amount)

	assert.Equal(t, int64(3150), a.Multiply(3).Amount)

	_, err = a.Add(Must(1, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestString(t *testing.T) {
	assert.Equal(t, "10.50 EUR", EUR(1050).String())
	assert.Equal(t, "-0.05 EUR", EUR(-5).String())
}
