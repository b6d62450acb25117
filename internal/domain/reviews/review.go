package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/events"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const maxCommentLength = 1000

var (
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("reviews: comment must be at most 1000 characters")
	ErrNotFound        = errors.New("reviews: not found")
	ErrRentRequired    = errors.New("reviews: rent is required")
	ErrRentNotPaid     = errors.New("reviews: only paid rents can be reviewed")
	ErrNotTenant       = errors.New("reviews: only the tenant of the rent can review it")
	ErrAlreadyReviewed = errors.New("reviews: rent already has a review from this tenant")
)

type ReviewID string

type Review struct {
	ID         ReviewID
	RentID     rent.ID
	PropertyID property.ID
	TenantID   user.ID
	Rating     int
	Comment    string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	// ActiveByRent returns the active reviews the tenant left on the rent.
	ActiveByRent(ctx context.Context, rentID rent.ID, tenantID user.ID) ([]*Review, error)
	Search(ctx context.Context, params SearchParams) (paging.Page[*Review], error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID       ReviewID
	Rent     *rent.Rent
	TenantID user.ID
	Rating   int
	Comment  string
	// Existing are the active reviews the tenant already left on the rent.
	Existing []*Review
	Now      time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	comment, err := validate(params.Rating, params.Comment)
	if err != nil {
		return nil, err
	}
	if err := CheckEligibility(params.Rent, params.TenantID, params.Existing, ""); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	review := &Review{
		ID:         params.ID,
		RentID:     params.Rent.ID,
		PropertyID: params.Rent.PropertyID,
		TenantID:   params.TenantID,
		Rating:     params.Rating,
		Comment:    comment,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, RentID: review.RentID, PropertyID: review.PropertyID, Rating: review.Rating, At: now})
	return review, nil
}

// CheckEligibility enforces that the rent is paid, the reviewer is its tenant
// and no other active review exists for the pair.
func CheckEligibility(r *rent.Rent, tenantID user.ID, existing []*Review, exclude ReviewID) error {
	if r == nil {
		return ErrRentRequired
	}
	if r.Status != rent.StatusPaid {
		return ErrRentNotPaid
	}
	if r.TenantID != tenantID {
		return ErrNotTenant
	}
	for _, other := range existing {
		if other == nil || !other.Active || other.ID == exclude {
			continue
		}
		if other.RentID == r.ID && other.TenantID == tenantID {
			return ErrAlreadyReviewed
		}
	}
	return nil
}

type ReviseParams struct {
	Rating   int
	Comment  string
	Rent     *rent.Rent
	Existing []*Review
	Now      time.Time
}

func (r *Review) Revise(params ReviseParams) error {
	comment, err := validate(params.Rating, params.Comment)
	if err != nil {
		return err
	}
	if params.Rent == nil || params.Rent.ID != r.RentID {
		return ErrRentRequired
	}
	if err := CheckEligibility(params.Rent, r.TenantID, params.Existing, r.ID); err != nil {
		return err
	}
	r.Rating = params.Rating
	r.Comment = comment
	r.UpdatedAt = params.Now.UTC()
	r.Record(ReviewUpdated{ReviewID: r.ID, Rating: r.Rating, At: r.UpdatedAt})
	return nil
}

// Withdraw soft-deletes the review.
func (r *Review) Withdraw(now time.Time) {
	if !r.Active {
		return
	}
	r.Active = false
	r.UpdatedAt = now.UTC()
	r.Record(ReviewWithdrawn{ReviewID: r.ID, At: r.UpdatedAt})
}

func validate(rating int, comment string) (string, error) {
	if rating < 1 || rating > 5 {
		return "", ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > maxCommentLength {
		return "", ErrCommentTooLong
	}
	return comment, nil
}
