package stripepay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"erent/internal/app/policies"
)

var ErrNotConfigured = errors.New("stripe: secret key is not configured")

// Gateway creates Stripe customers, ephemeral keys and payment intents for
// the mobile checkout sheet.
type Gateway struct {
	api *client.API
}

func New(secretKey string) (*Gateway, error) {
	return NewWithBackends(secretKey, nil)
}

// NewWithBackends lets callers point the client at another API host.
func NewWithBackends(secretKey string, backends *stripe.Backends) (*Gateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, ErrNotConfigured
	}
	return &Gateway{api: client.New(secretKey, backends)}, nil
}

func (g *Gateway) CreateCustomer(ctx context.Context, params policies.CustomerParams) (string, error) {
	p := &stripe.CustomerParams{Name: stripe.String(params.Name)}
	if params.Email != "" {
		p.Email = stripe.String(params.Email)
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	customer, err := g.api.Customers.New(p)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return customer.ID, nil
}

func (g *Gateway) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	p := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(stripe.APIVersion),
	}
	p.Context = ctx
	key, err := g.api.EphemeralKeys.New(p)
	if err != nil {
		return "", fmt.Errorf("stripe: create ephemeral key: %w", err)
	}
	return key.Secret, nil
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, params policies.IntentParams) (policies.PaymentIntent, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.Amount.Amount),
		Currency: stripe.String(strings.ToLower(params.Amount.Currency)),
		Customer: stripe.String(params.CustomerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	intent, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return policies.PaymentIntent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return policies.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// Unconfigured refuses every call when no secret key is set.
type Unconfigured struct{}

func (Unconfigured) CreateCustomer(context.Context, policies.CustomerParams) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) CreateEphemeralKey(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) CreatePaymentIntent(context.Context, policies.IntentParams) (policies.PaymentIntent, error) {
	return policies.PaymentIntent{}, ErrNotConfigured
}

var (
	_ policies.PaymentGateway = (*Gateway)(nil)
	_ policies.PaymentGateway = Unconfigured{}
)
