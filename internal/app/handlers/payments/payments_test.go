package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/middleware"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/payment"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateCustomer(ctx context.Context, params policies.CustomerParams) (string, error) {
	args := m.Called(params.Name)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	args := m.Called(customerID)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, params policies.IntentParams) (policies.PaymentIntent, error) {
	args := m.Called(params.CustomerID, params.Amount.Amount)
	return args.Get(0).(policies.PaymentIntent), args.Error(1)
}

func setup(t *testing.T) (*Handler, *mockGateway, *memory.PaymentStore) {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedUser(t, store, "landlord", user.RoleLandlord)
	handlertest.SeedUser(t, store, "tenant")
	handlertest.SeedProperty(t, store, "flat", "landlord")
	period, err := daterange.New(handlertest.Day(2026, 4, 1), handlertest.Day(2026, 4, 11))
	require.NoError(t, err)
	handlertest.SeedRent(t, store, &rent.Rent{ID: "r-1", PropertyID: "flat", TenantID: "tenant", LandlordID: "landlord", Period: period, Total: money.EUR(100000), Status: rent.StatusAccepted, Active: true})
	gateway := &mockGateway{}
	ledger := memory.NewPaymentStore()
	return &Handler{Payments: ledger, Gateway: gateway, UoWFactory: store, Clock: handlertest.Clock()}, gateway, ledger
}

func TestCreateIntentForRent(t *testing.T) {
	h, gateway, ledger := setup(t)
	ctx := context.Background()
	gateway.On("CreateCustomer", "Tena Tenant").Return("cus_1", nil).Once()
	gateway.On("CreateEphemeralKey", "cus_1").Return("ek_secret", nil).Once()
	gateway.On("CreatePaymentIntent", "cus_1", int64(100000)).Return(policies.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	out, err := h.CreateIntent().Handle(ctx, CreateIntentCommand{ID: "pay-1", Actor: handlertest.Actor("tenant"), RentID: "r-1", AmountCents: 5, CustomerName: "Tena Tenant"})

	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", out.ClientSecret)
	assert.Equal(t, "ek_secret", out.EphemeralKey)
	assert.Equal(t, "cus_1", out.CustomerID)
	stored, err := ledger.ByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, user.ID("tenant"), stored.TenantID)
	assert.Equal(t, int64(100000), stored.Amount.Amount, "the rent total wins over the requested amount")
	gateway.AssertExpectations(t)
}

// unitSpy records whether the gateway was reached with a unit of work open.
type unitSpy struct {
	*mockGateway
	inUnit []bool
}

func (s *unitSpy) CreateCustomer(ctx context.Context, params policies.CustomerParams) (string, error) {
	_, ok := uow.FromContext(ctx)
	s.inUnit = append(s.inUnit, ok)
	return s.mockGateway.CreateCustomer(ctx, params)
}

func TestCreateIntentCallsTheGatewayOutsideAUnit(t *testing.T) {
	h, gateway, ledger := setup(t)
	spy := &unitSpy{mockGateway: gateway}
	h.Gateway = spy
	gateway.On("CreateCustomer", "Tena Tenant").Return("cus_1", nil).Once()
	gateway.On("CreateEphemeralKey", "cus_1").Return("ek_secret", nil).Once()
	gateway.On("CreatePaymentIntent", "cus_1", int64(100000)).Return(policies.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, h.CreateIntent())
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(h.UoWFactory, nil))

	out, err := commands.Dispatch[CreateIntentCommand, dto.PaymentIntent](context.Background(), wrapped, CreateIntentCommand{
		ID: "pay-1", Actor: handlertest.Actor("tenant"), RentID: "r-1", CustomerName: "Tena Tenant",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", out.ClientSecret)
	assert.Equal(t, []bool{false}, spy.inUnit)
	_, err = ledger.ByID(context.Background(), "pay-1")
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestCreateIntentStopsOnGatewayError(t *testing.T) {
	h, gateway, ledger := setup(t)
	gateway.On("CreateCustomer", "Tena").Return("", errors.New("card network down")).Once()

	_, err := h.CreateIntent().Handle(context.Background(), CreateIntentCommand{ID: "pay-1", Actor: handlertest.Actor("tenant"), AmountCents: 2000, CustomerName: "Tena"})

	require.Error(t, err)
	page, err := ledger.Search(context.Background(), payment.SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "nothing is recorded without an intent")
	gateway.AssertNotCalled(t, "CreateEphemeralKey", mock.Anything)
}

func TestCreateIntentRequiresAmount(t *testing.T) {
	h, _, _ := setup(t)
	_, err := h.CreateIntent().Handle(context.Background(), CreateIntentCommand{ID: "pay-1", Actor: handlertest.Actor("tenant"), CustomerName: "Tena"})
	assert.ErrorIs(t, err, payment.ErrAmountRequired)
}

func TestConfirmAndSearch(t *testing.T) {
	h, _, ledger := setup(t)
	ctx := context.Background()
	pending, err := payment.NewPending(payment.CreateParams{ID: "pay-1", Amount: money.EUR(100000), CustomerName: "Tena", Now: handlertest.Now})
	require.NoError(t, err)
	pending.TenantID = "tenant"
	require.NoError(t, ledger.Create(ctx, pending))
	other, err := payment.NewPending(payment.CreateParams{ID: "pay-2", Amount: money.EUR(500), CustomerName: "Someone", Now: handlertest.Now})
	require.NoError(t, err)
	other.TenantID = "landlord"
	require.NoError(t, ledger.Create(ctx, other))

	_, err = h.Confirm().Handle(ctx, ConfirmPaymentCommand{PaymentID: "pay-1", Actor: handlertest.Actor("landlord"), RentID: "r-1"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = h.Confirm().Handle(ctx, ConfirmPaymentCommand{PaymentID: "pay-1", Actor: handlertest.Actor("tenant"), RentID: "missing"})
	assert.ErrorIs(t, err, rent.ErrNotFound)

	out, err := h.Confirm().Handle(ctx, ConfirmPaymentCommand{PaymentID: "pay-1", Actor: handlertest.Actor("tenant"), RentID: "r-1"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", out.Status)
	assert.Equal(t, "r-1", out.RentID)

	_, err = h.Confirm().Handle(ctx, ConfirmPaymentCommand{PaymentID: "pay-1", Actor: handlertest.Actor("tenant"), RentID: "r-1"})
	assert.ErrorIs(t, err, payment.ErrAlreadyConfirmed)

	search := &SearchPaymentsHandler{Payments: ledger}
	mine, err := search.Handle(ctx, SearchPaymentsQuery{Actor: handlertest.Actor("tenant"), UserID: "landlord"})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1, "non-admins only see their own payments")
	assert.Equal(t, "pay-1", mine.Items[0].ID)

	all, err := search.Handle(ctx, SearchPaymentsQuery{Actor: handlertest.Admin()})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = (&GetPaymentHandler{Payments: ledger}).Handle(ctx, GetPaymentQuery{Actor: handlertest.Actor("tenant"), PaymentID: "pay-2"})
	assert.ErrorIs(t, err, access.ErrForbidden)
}
