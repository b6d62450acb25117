package payments

import (
	"context"
	"fmt"
	"time"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	"erent/internal/app/queries"
	"erent/internal/domain/payment"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	getPaymentKey     = "payments.get"
	searchPaymentsKey = "payments.search"
)

type GetPaymentQuery struct {
	Actor     access.Actor
	PaymentID string `validate:"required"`
}

func (GetPaymentQuery) Key() string            { return getPaymentKey }
func (q GetPaymentQuery) Caller() access.Actor { return q.Actor }

type GetPaymentHandler struct {
	Payments payment.Repository
}

func (h *GetPaymentHandler) Handle(ctx context.Context, q GetPaymentQuery) (dto.Payment, error) {
	p, err := h.Payments.ByID(ctx, payment.ID(q.PaymentID))
	if err != nil {
		return dto.Payment{}, err
	}
	if !q.Actor.Is(p.TenantID) {
		return dto.Payment{}, fmt.Errorf("%w: payment belongs to another user", access.ErrForbidden)
	}
	return dto.MapPayment(p), nil
}

// SearchPaymentsQuery lists the ledger newest first. Only administrators may
// look at other users' payments.
type SearchPaymentsQuery struct {
	Actor     access.Actor
	UserID    string
	RentID    string
	Status    payment.Status
	From      *time.Time
	To        *time.Time
	MinAmount *int64
	MaxAmount *int64
	Text      string
	Paging    paging.Params
}

func (SearchPaymentsQuery) Key() string            { return searchPaymentsKey }
func (q SearchPaymentsQuery) Caller() access.Actor { return q.Actor }

type SearchPaymentsHandler struct {
	Payments payment.Repository
}

func (h *SearchPaymentsHandler) Handle(ctx context.Context, q SearchPaymentsQuery) (dto.Page[dto.Payment], error) {
	tenant := user.ID(q.UserID)
	if !q.Actor.IsAdmin() {
		tenant = q.Actor.ID
	}
	page, err := h.Payments.Search(ctx, payment.SearchParams{
		TenantID:  tenant,
		RentID:    rent.ID(q.RentID),
		Status:    q.Status,
		From:      q.From,
		To:        q.To,
		MinAmount: q.MinAmount,
		MaxAmount: q.MaxAmount,
		Text:      q.Text,
		Paging:    q.Paging,
	})
	if err != nil {
		return dto.Page[dto.Payment]{}, err
	}
	return dto.MapPage(page, dto.MapPayment), nil
}

var (
	_ queries.Handler[GetPaymentQuery, dto.Payment]               = (*GetPaymentHandler)(nil)
	_ queries.Handler[SearchPaymentsQuery, dto.Page[dto.Payment]] = (*SearchPaymentsHandler)(nil)
)
