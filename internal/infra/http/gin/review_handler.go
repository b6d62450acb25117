package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	reviewsapp "erent/internal/app/handlers/reviews"
	"erent/internal/app/queries"
)

type ReviewsHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Submit(c *gin.Context)
	Update(c *gin.Context)
	Withdraw(c *gin.Context)
}

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type reviewRequest struct {
	RentID  string `json:"rent_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewsHandler) Search(c *gin.Context) {
	q := readQuery(c)
	query := reviewsapp.SearchReviewsQuery{
		RentID:     q.str("rent_id"),
		PropertyID: q.str("property_id"),
		TenantID:   q.str("tenant_id"),
		Rating:     q.intPtr("rating"),
		MinRating:  q.intPtr("min_rating"),
		Active:     q.boolPtr("active"),
		Paging:     q.paging(),
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[reviewsapp.SearchReviewsQuery, dto.ReviewPage](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Get(c *gin.Context) {
	query := reviewsapp.GetReviewQuery{ReviewID: c.Param("id")}
	result, err := queries.Ask[reviewsapp.GetReviewQuery, dto.Review](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		ID:      newID(),
		Actor:   currentActor(c),
		RentID:  req.RentID,
		Rating:  req.Rating,
		Comment: req.Comment,
		IdemKey: idempotencyKey(c),
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "rent_id", req.RentID)
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) Update(c *gin.Context) {
	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := reviewsapp.UpdateReviewCommand{
		ReviewID: c.Param("id"),
		Actor:    currentActor(c),
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	review, err := commands.Dispatch[reviewsapp.UpdateReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Withdraw serves DELETE; the review is deactivated rather than removed.
func (h ReviewsHandler) Withdraw(c *gin.Context) {
	cmd := reviewsapp.WithdrawReviewCommand{ReviewID: c.Param("id"), Actor: currentActor(c)}
	review, err := commands.Dispatch[reviewsapp.WithdrawReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

var _ ReviewsHTTP = ReviewsHandler{}
