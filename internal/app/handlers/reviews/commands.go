package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/outbox"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/rent"
	domainreviews "erent/internal/domain/reviews"
)

const (
	submitReviewKey   = "reviews.submit"
	updateReviewKey   = "reviews.update"
	withdrawReviewKey = "reviews.withdraw"
)

// SubmitReviewCommand reviews a paid rent on behalf of its tenant.
type SubmitReviewCommand struct {
	ID      string `validate:"required"`
	Actor   access.Actor
	RentID  string `validate:"required"`
	Rating  int    `validate:"min=1,max=5"`
	Comment string `validate:"max=1000"`
	IdemKey string
}

func (SubmitReviewCommand) Key() string              { return submitReviewKey }
func (c SubmitReviewCommand) Caller() access.Actor   { return c.Actor }
func (c SubmitReviewCommand) IdempotencyKey() string { return c.IdemKey }
func (SubmitReviewCommand) ResultPrototype() any     { return &dto.Review{} }

type UpdateReviewCommand struct {
	ReviewID string `validate:"required"`
	Actor    access.Actor
	Rating   int    `validate:"min=1,max=5"`
	Comment  string `validate:"max=1000"`
}

func (UpdateReviewCommand) Key() string            { return updateReviewKey }
func (c UpdateReviewCommand) Caller() access.Actor { return c.Actor }

// WithdrawReviewCommand deactivates a review. The author and administrators
// may withdraw it.
type WithdrawReviewCommand struct {
	ReviewID string `validate:"required"`
	Actor    access.Actor
}

func (WithdrawReviewCommand) Key() string            { return withdrawReviewKey }
func (c WithdrawReviewCommand) Caller() access.Actor { return c.Actor }

type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) Submit() commands.Handler[SubmitReviewCommand, dto.Review] {
	return commands.HandlerFunc[SubmitReviewCommand, dto.Review](h.submit)
}

func (h *Handler) Update() commands.Handler[UpdateReviewCommand, dto.Review] {
	return commands.HandlerFunc[UpdateReviewCommand, dto.Review](h.update)
}

func (h *Handler) Withdraw() commands.Handler[WithdrawReviewCommand, dto.Review] {
	return commands.HandlerFunc[WithdrawReviewCommand, dto.Review](h.withdraw)
}

func (h *Handler) submit(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer m.Close()

	r, err := m.Unit.Rents().ByID(m.Ctx, rent.ID(cmd.RentID))
	if err != nil {
		return dto.Review{}, err
	}
	existing, err := m.Unit.Reviews().ActiveByRent(m.Ctx, r.ID, cmd.Actor.ID)
	if err != nil {
		return dto.Review{}, err
	}
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:       domainreviews.ReviewID(cmd.ID),
		Rent:     r,
		TenantID: cmd.Actor.ID,
		Rating:   cmd.Rating,
		Comment:  cmd.Comment,
		Existing: existing,
		Now:      h.Clock.Now(),
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := h.save(m, review); err != nil {
		return dto.Review{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "rent_id", review.RentID, "rating", review.Rating)
	}
	return dto.MapReview(review), nil
}

func (h *Handler) update(ctx context.Context, cmd UpdateReviewCommand) (dto.Review, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer m.Close()

	review, err := m.Unit.Reviews().ByID(m.Ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return dto.Review{}, err
	}
	if review.TenantID != cmd.Actor.ID {
		return dto.Review{}, fmt.Errorf("%w: only the author can change the review", access.ErrForbidden)
	}
	r, err := m.Unit.Rents().ByID(m.Ctx, review.RentID)
	if err != nil {
		return dto.Review{}, err
	}
	existing, err := m.Unit.Reviews().ActiveByRent(m.Ctx, r.ID, review.TenantID)
	if err != nil {
		return dto.Review{}, err
	}
	if err := review.Revise(domainreviews.ReviseParams{
		Rating:   cmd.Rating,
		Comment:  cmd.Comment,
		Rent:     r,
		Existing: existing,
		Now:      h.Clock.Now(),
	}); err != nil {
		return dto.Review{}, err
	}
	if err := h.save(m, review); err != nil {
		return dto.Review{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review updated", "review_id", review.ID, "rating", review.Rating)
	}
	return dto.MapReview(review), nil
}

func (h *Handler) withdraw(ctx context.Context, cmd WithdrawReviewCommand) (dto.Review, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer m.Close()

	review, err := m.Unit.Reviews().ByID(m.Ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return dto.Review{}, err
	}
	if !cmd.Actor.Is(review.TenantID) {
		return dto.Review{}, fmt.Errorf("%w: only the author can withdraw the review", access.ErrForbidden)
	}
	review.Withdraw(h.Clock.Now())
	if err := h.save(m, review); err != nil {
		return dto.Review{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review withdrawn", "review_id", review.ID)
	}
	return dto.MapReview(review), nil
}

func (h *Handler) save(m *handlersupport.Managed, review *domainreviews.Review) error {
	if err := m.Unit.Reviews().Save(m.Ctx, review); err != nil {
		return err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, review); err != nil {
		return err
	}
	return m.Commit()
}
