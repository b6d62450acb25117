package dto

import (
	"time"

	"erent/internal/domain/payment"
)

type Billing struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

type Payment struct {
	ID              string     `json:"id"`
	RentID          string     `json:"rent_id,omitempty"`
	TenantID        string     `json:"tenant_id,omitempty"`
	PaymentIntentID string     `json:"stripe_payment_intent_id"`
	Amount          MoneyDTO   `json:"amount"`
	Status          string     `json:"payment_status"`
	Method          string     `json:"payment_method"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email,omitempty"`
	Billing         Billing    `json:"billing"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func MapPayment(p *payment.Payment) Payment {
	return Payment{
		ID:              string(p.ID),
		RentID:          string(p.RentID),
		TenantID:        string(p.TenantID),
		PaymentIntentID: p.StripePaymentIntentID,
		Amount:          MapMoney(p.Amount),
		Status:          string(p.Status),
		Method:          p.Method,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		Billing: Billing{
			Address: p.Billing.Address,
			City:    p.Billing.City,
			State:   p.Billing.State,
			Country: p.Billing.Country,
			ZipCode: p.Billing.ZipCode,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type PaymentIntent struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	EphemeralKey string `json:"ephemeral_key"`
	CustomerID   string `json:"customer_id"`
}

func MapPaymentIntent(in payment.Intent) PaymentIntent {
	return PaymentIntent{
		PaymentID:    string(in.PaymentID),
		ClientSecret: in.ClientSecret,
		EphemeralKey: in.EphemeralKey,
		CustomerID:   in.CustomerID,
	}
}
