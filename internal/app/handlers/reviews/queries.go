package reviews

import (
	"context"
	"log/slog"

	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	domainreviews "erent/internal/domain/reviews"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	getReviewKey     = "reviews.get"
	searchReviewsKey = "reviews.search"
)

type GetReviewQuery struct {
	ReviewID string `validate:"required"`
}

func (GetReviewQuery) Key() string { return getReviewKey }

type GetReviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetReviewHandler) Handle(ctx context.Context, q GetReviewQuery) (dto.Review, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	review, err := unit.Reviews().ByID(execCtx, domainreviews.ReviewID(q.ReviewID))
	if err != nil {
		return dto.Review{}, err
	}
	return dto.MapReview(review), nil
}

// SearchReviewsQuery lists reviews, newest first, with the rating summary of
// every match rather than only the returned page.
type SearchReviewsQuery struct {
	RentID     string
	PropertyID string
	TenantID   string
	Rating     *int
	MinRating  *int
	Active     *bool
	Paging     paging.Params
}

func (SearchReviewsQuery) Key() string { return searchReviewsKey }

type SearchReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchReviewsHandler) Handle(ctx context.Context, q SearchReviewsQuery) (dto.ReviewPage, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewPage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainreviews.SearchParams{
		RentID:     rent.ID(q.RentID),
		PropertyID: property.ID(q.PropertyID),
		TenantID:   user.ID(q.TenantID),
		Rating:     q.Rating,
		MinRating:  q.MinRating,
		Active:     q.Active,
		Paging:     q.Paging,
	}
	page, err := unit.Reviews().Search(execCtx, params)
	if err != nil {
		return dto.ReviewPage{}, err
	}
	params.Paging = paging.Params{RetrieveAll: true}
	all, err := unit.Reviews().Search(execCtx, params)
	if err != nil {
		return dto.ReviewPage{}, err
	}

	out := dto.ReviewPage{
		Page:    dto.MapPage(page, dto.MapReview),
		Summary: dto.MapReviewSummary(domainreviews.Summarize(all.Items)),
	}
	if h.Logger != nil {
		h.Logger.Debug("reviews searched", "count", len(out.Items), "matched", out.Summary.Count)
	}
	return out, nil
}

var (
	_ queries.Handler[GetReviewQuery, dto.Review]         = (*GetReviewHandler)(nil)
	_ queries.Handler[SearchReviewsQuery, dto.ReviewPage] = (*SearchReviewsHandler)(nil)
)
