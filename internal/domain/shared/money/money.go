package money

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultCurrency is used by listings and rents when no currency is provided.
const DefaultCurrency = "EUR"

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money keeps amounts in minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// EUR is shorthand for Must(cents, "EUR").
func EUR(cents int64) Money {
	return Money{Amount: cents, Currency: DefaultCurrency}
}

func Zero(currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Major returns the amount in major units, for reporting only.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
