package stripepay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"erent/internal/app/policies"
	"erent/internal/domain/shared/money"
)

func fakeStripe(t *testing.T) (*Gateway, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = append(seen, r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/customers":
			_, _ = w.Write([]byte(`{"id":"cus_1","object":"customer"}`))
		case "/v1/ephemeral_keys":
			_, _ = w.Write([]byte(`{"id":"ephkey_1","object":"ephemeral_key","secret":"ek_secret"}`))
		case "/v1/payment_intents":
			_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","client_secret":"pi_1_secret"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"unknown"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	g, err := NewWithBackends("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	require.NoError(t, err)
	return g, &seen
}

func TestGatewayFlow(t *testing.T) {
	g, seen := fakeStripe(t)
	ctx := context.Background()

	customer, err := g.CreateCustomer(ctx, policies.CustomerParams{Name: "Lejla Begic", Email: "lejla@example.com", Metadata: map[string]string{"rent_id": "r-1"}})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", customer)

	key, err := g.CreateEphemeralKey(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, "ek_secret", key)

	intent, err := g.CreatePaymentIntent(ctx, policies.IntentParams{CustomerID: customer, Amount: money.Must(100000, "EUR")})
	require.NoError(t, err)
	assert.Equal(t, policies.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, intent)

	require.Len(t, *seen, 3)
	form := (*seen)[2].Form
	assert.Equal(t, "100000", form.Get("amount"))
	assert.Equal(t, "eur", form.Get("currency"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "r-1", (*seen)[0].Form.Get("metadata[rent_id]"))
}

func TestUnconfigured(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = Unconfigured{}.CreateCustomer(context.Background(), policies.CustomerParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
