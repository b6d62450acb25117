// Package ledger stores payments in a relational database. PostgreSQL runs in
// production and SQLite in local setups.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"erent/internal/domain/payment"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	rent_id TEXT,
	tenant_id TEXT,
	stripe_payment_intent_id TEXT NOT NULL,
	stripe_customer_id TEXT NOT NULL,
	amount BIGINT NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	method TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	billing_address TEXT NOT NULL,
	billing_city TEXT NOT NULL,
	billing_state TEXT NOT NULL,
	billing_country TEXT NOT NULL,
	billing_zip TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP
)`

const columns = `id, rent_id, tenant_id, stripe_payment_intent_id, stripe_customer_id, amount, currency, status, method,
	customer_name, customer_email, billing_address, billing_city, billing_state, billing_country, billing_zip, created_at, updated_at`

// Open connects to the ledger database and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("ledger: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return db, nil
}

// PaymentRepository implements payment.Repository over database/sql. Queries
// use numbered placeholders, which both drivers accept.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PaymentRepository) ByID(ctx context.Context, id payment.ID) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM payments WHERE id = $1`, string(id))
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `INSERT INTO payments (` + columns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.db.ExecContext(ctx, query,
		string(p.ID), nullString(string(p.RentID)), nullString(string(p.TenantID)),
		p.StripePaymentIntentID, p.StripeCustomerID, p.Amount.Amount, p.Amount.Currency,
		string(p.Status), p.Method, p.CustomerName, p.CustomerEmail,
		p.Billing.Address, p.Billing.City, p.Billing.State, p.Billing.Country, p.Billing.ZipCode,
		p.CreatedAt.UTC(), nullTime(p.UpdatedAt),
	)
	return err
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `UPDATE payments SET rent_id = $1, tenant_id = $2, status = $3, method = $4, customer_name = $5,
	          customer_email = $6, updated_at = $7 WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		nullString(string(p.RentID)), nullString(string(p.TenantID)), string(p.Status), p.Method,
		p.CustomerName, p.CustomerEmail, nullTime(p.UpdatedAt), string(p.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) Search(ctx context.Context, params payment.SearchParams) (paging.Page[*payment.Payment], error) {
	where, args := searchFilter(params)
	out := paging.Page[*payment.Payment]{}

	if params.Paging.IncludeTotalCount {
		var total int
		if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM payments`+where, args...).Scan(&total); err != nil {
			return out, err
		}
		out.TotalCount = &total
	}

	query := `SELECT ` + columns + ` FROM payments` + where + ` ORDER BY created_at DESC, id DESC`
	if offset, limit, ok := params.Paging.Window(); ok {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, p)
	}
	return out, rows.Err()
}

func searchFilter(params payment.SearchParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if params.TenantID != "" {
		add("tenant_id = ?", string(params.TenantID))
	}
	if params.RentID != "" {
		add("rent_id = ?", string(params.RentID))
	}
	if params.Status != "" {
		add("status = ?", string(params.Status))
	}
	if params.From != nil {
		add("created_at >= ?", params.From.UTC())
	}
	if params.To != nil {
		add("created_at <= ?", params.To.UTC())
	}
	if params.MinAmount != nil {
		add("amount >= ?", *params.MinAmount)
	}
	if params.MaxAmount != nil {
		add("amount <= ?", *params.MaxAmount)
	}
	if text := strings.ToLower(strings.TrimSpace(params.Text)); text != "" {
		add("LOWER(customer_name) LIKE ?", "%"+text+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var (
		p                payment.Payment
		id, status       string
		rentID, tenantID sql.NullString
		amount           int64
		currency         string
		createdAt        time.Time
		updatedAt        sql.NullTime
	)
	err := row.Scan(&id, &rentID, &tenantID, &p.StripePaymentIntentID, &p.StripeCustomerID, &amount, &currency, &status, &p.Method,
		&p.CustomerName, &p.CustomerEmail, &p.Billing.Address, &p.Billing.City, &p.Billing.State, &p.Billing.Country, &p.Billing.ZipCode,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = payment.ID(id)
	p.RentID = rent.ID(rentID.String)
	p.TenantID = user.ID(tenantID.String)
	p.Amount = money.Money{Amount: amount, Currency: currency}
	p.Status = payment.Status(status)
	p.CreatedAt = createdAt.UTC()
	if updatedAt.Valid {
		at := updatedAt.Time.UTC()
		p.UpdatedAt = &at
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var _ payment.Repository = (*PaymentRepository)(nil)
