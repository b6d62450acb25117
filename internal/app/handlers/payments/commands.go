package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/payment"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/money"
)

const (
	createIntentKey   = "payments.create_intent"
	confirmPaymentKey = "payments.confirm"
)

var ErrGatewayUnavailable = errors.New("payments: payment gateway is not configured")

// CreateIntentCommand opens a card payment. When RentID is set the amount is
// the rent total and AmountCents is ignored.
type CreateIntentCommand struct {
	ID            string `validate:"required"`
	Actor         access.Actor
	RentID        string
	AmountCents   int64  `validate:"gte=0"`
	Currency      string `validate:"omitempty,len=3"`
	CustomerName  string `validate:"required,max=200"`
	CustomerEmail string `validate:"omitempty,email"`
	Billing       dto.Billing
	IdemKey       string
}

func (CreateIntentCommand) Key() string              { return createIntentKey }
func (c CreateIntentCommand) Caller() access.Actor   { return c.Actor }
func (c CreateIntentCommand) IdempotencyKey() string { return c.IdemKey }
func (CreateIntentCommand) ResultPrototype() any     { return &dto.PaymentIntent{} }

// ManagesOwnUnits keeps the Stripe round-trips out of any unit of work.
func (CreateIntentCommand) ManagesOwnUnits() {}

// ConfirmPaymentCommand attaches a completed payment to its rent.
type ConfirmPaymentCommand struct {
	PaymentID string `validate:"required"`
	Actor     access.Actor
	RentID    string `validate:"required"`
}

func (ConfirmPaymentCommand) Key() string            { return confirmPaymentKey }
func (c ConfirmPaymentCommand) Caller() access.Actor { return c.Actor }
func (ConfirmPaymentCommand) ManagesOwnUnits()       {}

// Handler serves payment writes. The ledger lives outside the unit of work;
// rents are read through a short read-only unit that is closed before the
// gateway is called.
type Handler struct {
	Payments   payment.Repository
	Gateway    policies.PaymentGateway
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) CreateIntent() commands.Handler[CreateIntentCommand, dto.PaymentIntent] {
	return commands.HandlerFunc[CreateIntentCommand, dto.PaymentIntent](h.createIntent)
}

func (h *Handler) Confirm() commands.Handler[ConfirmPaymentCommand, dto.Payment] {
	return commands.HandlerFunc[ConfirmPaymentCommand, dto.Payment](h.confirm)
}

func (h *Handler) createIntent(ctx context.Context, cmd CreateIntentCommand) (dto.PaymentIntent, error) {
	if h.Gateway == nil {
		return dto.PaymentIntent{}, ErrGatewayUnavailable
	}
	currency := cmd.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	amount := money.Money{Amount: cmd.AmountCents, Currency: currency}
	var rentID rent.ID
	if cmd.RentID != "" {
		r, err := h.loadRent(ctx, rent.ID(cmd.RentID), cmd.Actor)
		if err != nil {
			return dto.PaymentIntent{}, err
		}
		amount, rentID = r.Total, r.ID
	}
	if !amount.IsPositive() {
		return dto.PaymentIntent{}, payment.ErrAmountRequired
	}

	metadata := map[string]string{"payment_id": cmd.ID, "user_id": string(cmd.Actor.ID)}
	if rentID != "" {
		metadata["rent_id"] = string(rentID)
	}
	customerID, err := h.Gateway.CreateCustomer(ctx, policies.CustomerParams{Name: cmd.CustomerName, Email: cmd.CustomerEmail, Metadata: metadata})
	if err != nil {
		return dto.PaymentIntent{}, fmt.Errorf("create customer: %w", err)
	}
	ephemeralKey, err := h.Gateway.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return dto.PaymentIntent{}, fmt.Errorf("create ephemeral key: %w", err)
	}
	intent, err := h.Gateway.CreatePaymentIntent(ctx, policies.IntentParams{
		CustomerID:  customerID,
		Amount:      amount,
		Description: "eRent payment " + cmd.ID,
		Metadata:    metadata,
	})
	if err != nil {
		return dto.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}

	p, err := payment.NewPending(payment.CreateParams{
		ID:               payment.ID(cmd.ID),
		Amount:           amount,
		CustomerName:     cmd.CustomerName,
		CustomerEmail:    cmd.CustomerEmail,
		Billing:          payment.Billing(cmd.Billing),
		PaymentIntentID:  intent.ID,
		StripeCustomerID: customerID,
		Now:              h.Clock.Now(),
	})
	if err != nil {
		return dto.PaymentIntent{}, err
	}
	p.TenantID = cmd.Actor.ID
	p.RentID = rentID
	if err := h.Payments.Create(ctx, p); err != nil {
		return dto.PaymentIntent{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment intent created", "payment_id", p.ID, "intent_id", intent.ID, "amount", amount.String())
	}
	return dto.MapPaymentIntent(payment.Intent{
		PaymentID:    p.ID,
		ClientSecret: intent.ClientSecret,
		EphemeralKey: ephemeralKey,
		CustomerID:   customerID,
	}), nil
}

func (h *Handler) confirm(ctx context.Context, cmd ConfirmPaymentCommand) (dto.Payment, error) {
	p, err := h.Payments.ByID(ctx, payment.ID(cmd.PaymentID))
	if err != nil {
		return dto.Payment{}, err
	}
	if !cmd.Actor.Is(p.TenantID) {
		return dto.Payment{}, fmt.Errorf("%w: payment belongs to another user", access.ErrForbidden)
	}
	r, err := h.loadRent(ctx, rent.ID(cmd.RentID), cmd.Actor)
	if err != nil {
		return dto.Payment{}, err
	}
	if err := p.Confirm(r, h.Clock.Now()); err != nil {
		return dto.Payment{}, err
	}
	if err := h.Payments.Update(ctx, p); err != nil {
		return dto.Payment{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment confirmed", "payment_id", p.ID, "rent_id", p.RentID)
	}
	return dto.MapPayment(p), nil
}

func (h *Handler) loadRent(ctx context.Context, id rent.ID, actor access.Actor) (*rent.Rent, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	r, err := unit.Rents().ByID(execCtx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(r.TenantID) {
		return nil, fmt.Errorf("%w: only the tenant pays the rent", access.ErrForbidden)
	}
	return r, nil
}
