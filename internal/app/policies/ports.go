package policies

import (
	"context"
	"io"
	"time"

	"erent/internal/domain/shared/money"
)

// ImageStore keeps property image bytes and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers a single e-mail.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

type Email struct {
	ToName  string
	ToAddr  string
	Subject string
	Text    string
	HTML    string
}

type CustomerParams struct {
	Name     string
	Email    string
	Metadata map[string]string
}

type IntentParams struct {
	CustomerID  string
	Amount      money.Money
	Description string
	Metadata    map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentGateway is the card processor the payments use case talks to.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateEphemeralKey(ctx context.Context, customerID string) (string, error)
	CreatePaymentIntent(ctx context.Context, params IntentParams) (PaymentIntent, error)
}

// Clock abstracts the current time for handlers that need deterministic tests.
type Clock func() time.Time

// Now returns the current UTC time, falling back to the wall clock when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
