package uow

import (
	"context"

	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() property.Repository
	Rents() rent.Repository
	Viewings() viewing.Repository
	Reviews() reviews.Repository
	Reference() reference.Repository
	Users() user.Repository
	Notifications() notification.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
