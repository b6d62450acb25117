package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/payment"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/shared/paging"
)

var columnNames = []string{"id", "rent_id", "tenant_id", "stripe_payment_intent_id", "stripe_customer_id", "amount", "currency", "status", "method",
	"customer_name", "customer_email", "billing_address", "billing_city", "billing_state", "billing_country", "billing_zip", "created_at", "updated_at"}

var created = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPaymentRepository(db), mock
}

func TestPaymentRepository_ByID(t *testing.T) {
	repo, mock := newRepo(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(columnNames).
			AddRow("pay-1", "r-1", "u-1", "pi_1", "cus_1", int64(100000), "EUR", "succeeded", "card",
				"Lejla Begic", "lejla@example.com", "Titova 1", "Sarajevo", "", "BA", "71000", created, created)
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
			WithArgs("pay-1").
			WillReturnRows(rows)

		p, err := repo.ByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSucceeded, p.Status)
		assert.Equal(t, money.Money{Amount: 100000, Currency: "EUR"}, p.Amount)
		assert.Equal(t, "Sarajevo", p.Billing.City)
		require.NotNil(t, p.UpdatedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.ByID(ctx, "missing")
		assert.ErrorIs(t, err, payment.ErrNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)
	p := &payment.Payment{
		ID:                    "pay-1",
		StripePaymentIntentID: "pi_1",
		StripeCustomerID:      "cus_1",
		Amount:                money.Must(5000, "EUR"),
		Status:                payment.StatusPending,
		Method:                payment.DefaultMethod,
		CustomerName:          "Lejla Begic",
		CreatedAt:             created,
	}
	mock.ExpectExec("INSERT INTO payments").
		WithArgs("pay-1", sql.NullString{}, sql.NullString{}, "pi_1", "cus_1", int64(5000), "EUR", "pending", "card",
			"Lejla Begic", "", "", "", "", "", "", created, sql.NullTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Update(t *testing.T) {
	repo, mock := newRepo(t)
	at := created.Add(time.Hour)
	p := &payment.Payment{ID: "pay-1", RentID: "r-1", TenantID: "u-1", Status: payment.StatusSucceeded, Method: "card", CustomerName: "Lejla", UpdatedAt: &at}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments SET (.+) WHERE id = \\$8").
			WithArgs(sql.NullString{String: "r-1", Valid: true}, sql.NullString{String: "u-1", Valid: true}, "succeeded", "card", "Lejla", "", sql.NullTime{Time: at, Valid: true}, "pay-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Update(context.Background(), p))
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE payments").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), p), payment.ErrNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Search(t *testing.T) {
	repo, mock := newRepo(t)
	minAmount := int64(1000)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM payments WHERE tenant_id = \\$1 AND status = \\$2 AND amount >= \\$3 AND LOWER\\(customer_name\\) LIKE \\$4").
		WithArgs("u-1", "pending", minAmount, "%lejla%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE (.+) ORDER BY created_at DESC, id DESC LIMIT \\$5 OFFSET \\$6").
		WithArgs("u-1", "pending", minAmount, "%lejla%", 2, 2).
		WillReturnRows(sqlmock.NewRows(columnNames).
			AddRow("pay-3", nil, "u-1", "pi_3", "cus_3", int64(2000), "EUR", "pending", "card",
				"Lejla Begic", "", "", "", "", "", "", created, nil))

	page, err := repo.Search(context.Background(), payment.SearchParams{
		TenantID:  "u-1",
		Status:    payment.StatusPending,
		MinAmount: &minAmount,
		Text:      " Lejla ",
		Paging:    paging.Params{Page: paging.Int(1), PageSize: paging.Int(2), IncludeTotalCount: true},
	})
	require.NoError(t, err)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 3, *page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.Items[0].RentID)
	assert.Nil(t, page.Items[0].UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.Error(t, err)
}
