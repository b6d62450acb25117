package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"erent/internal/domain/rent"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

var (
	ErrNotFound             = errors.New("payment: not found")
	ErrAmountRequired       = errors.New("payment: amount must be greater than 0")
	ErrCustomerNameRequired = errors.New("payment: customer name is required")
	ErrAlreadyConfirmed     = errors.New("payment: already confirmed")
	ErrRentRequired         = errors.New("payment: rent is required")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
)

const DefaultMethod = "card"

type Billing struct {
	Address string
	City    string
	State   string
	Country string
	ZipCode string
}

type Payment struct {
	ID                    ID
	RentID                rent.ID
	TenantID              user.ID
	StripePaymentIntentID string
	StripeCustomerID      string
	Amount                money.Money
	Status                Status
	Method                string
	CustomerName          string
	CustomerEmail         string
	Billing               Billing
	CreatedAt             time.Time
	UpdatedAt             *time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Payment, error)
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	Search(ctx context.Context, params SearchParams) (paging.Page[*Payment], error)
}

// Intent is what a client needs to complete a card payment.
type Intent struct {
	PaymentID    ID
	ClientSecret string
	EphemeralKey string
	CustomerID   string
}

type CreateParams struct {
	ID               ID
	Amount           money.Money
	CustomerName     string
	CustomerEmail    string
	Billing          Billing
	PaymentIntentID  string
	StripeCustomerID string
	Now              time.Time
}

// NewPending records a payment intent that the client has yet to complete.
func NewPending(params CreateParams) (*Payment, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrAmountRequired
	}
	name := strings.TrimSpace(params.CustomerName)
	if name == "" {
		return nil, ErrCustomerNameRequired
	}
	return &Payment{
		ID:                    params.ID,
		StripePaymentIntentID: params.PaymentIntentID,
		StripeCustomerID:      params.StripeCustomerID,
		Amount:                params.Amount,
		Status:                StatusPending,
		Method:                DefaultMethod,
		CustomerName:          name,
		CustomerEmail:         strings.TrimSpace(params.CustomerEmail),
		Billing:               params.Billing,
		CreatedAt:             params.Now.UTC(),
	}, nil
}

// Confirm attaches the payment to its rent and marks it succeeded.
func (p *Payment) Confirm(r *rent.Rent, now time.Time) error {
	if r == nil {
		return ErrRentRequired
	}
	if p.Status == StatusSucceeded {
		return ErrAlreadyConfirmed
	}
	at := now.UTC()
	p.RentID = r.ID
	p.TenantID = r.TenantID
	p.Status = StatusSucceeded
	p.UpdatedAt = &at
	return nil
}

type SearchParams struct {
	TenantID  user.ID
	RentID    rent.ID
	Status    Status
	From      *time.Time
	To        *time.Time
	MinAmount *int64
	MaxAmount *int64
	// Text matches the customer name.
	Text   string
	Paging paging.Params
}

// Matches applies the non-paging filters of s.
func (s SearchParams) Matches(p *Payment) bool {
	if s.TenantID != "" && p.TenantID != s.TenantID {
		return false
	}
	if s.RentID != "" && p.RentID != s.RentID {
		return false
	}
	if s.Status != "" && p.Status != s.Status {
		return false
	}
	if s.From != nil && p.CreatedAt.Before(*s.From) {
		return false
	}
	if s.To != nil && p.CreatedAt.After(*s.To) {
		return false
	}
	if s.MinAmount != nil && p.Amount.Amount < *s.MinAmount {
		return false
	}
	if s.MaxAmount != nil && p.Amount.Amount > *s.MaxAmount {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(s.Text)); text != "" && !strings.Contains(strings.ToLower(p.CustomerName), text) {
		return false
	}
	return true
}
