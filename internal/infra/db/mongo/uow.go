package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"erent/internal/app/uow"
	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadPreference(f.DB.ReadPreference())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{db: f.DB, session: session}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session
}

func (u *Unit) Properties() property.Repository { return NewPropertyRepository(u.db) }

func (u *Unit) Rents() rent.Repository { return NewRentRepository(u.db) }

func (u *Unit) Viewings() viewing.Repository { return NewViewingRepository(u.db) }

func (u *Unit) Reviews() reviews.Repository { return NewReviewRepository(u.db) }

func (u *Unit) Reference() reference.Repository { return NewReferenceRepository(u.db) }

func (u *Unit) Users() user.Repository { return NewUserRepository(u.db) }

func (u *Unit) Notifications() notification.Repository { return NewNotificationRepository(u.db) }

// Commit reports a transaction aborted by a conflicting writer as
// uow.ErrConcurrentUpdate so the command can be retried.
func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if conflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
