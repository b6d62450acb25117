package rents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/outbox"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/user"
)

const (
	createRentKey = "rents.create"
	updateRentKey = "rents.update"
	acceptRentKey = "rents.accept"
	rejectRentKey = "rents.reject"
	cancelRentKey = "rents.cancel"
	payRentKey    = "rents.pay"
)

// CreateRentCommand requests a stay on a property for the calling tenant.
type CreateRentCommand struct {
	ID         string `validate:"required"`
	Actor      access.Actor
	PropertyID string    `validate:"required"`
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required,gtfield=Start"`
	Daily      bool
	IdemKey    string
}

func (CreateRentCommand) Key() string              { return createRentKey }
func (c CreateRentCommand) Caller() access.Actor   { return c.Actor }
func (c CreateRentCommand) IdempotencyKey() string { return c.IdemKey }
func (CreateRentCommand) ResultPrototype() any     { return &dto.Rent{} }

type UpdateRentCommand struct {
	RentID  string `validate:"required"`
	Actor   access.Actor
	Start   time.Time `validate:"required"`
	End     time.Time `validate:"required,gtfield=Start"`
	Daily   bool
	IdemKey string
}

func (UpdateRentCommand) Key() string              { return updateRentKey }
func (c UpdateRentCommand) Caller() access.Actor   { return c.Actor }
func (c UpdateRentCommand) IdempotencyKey() string { return c.IdemKey }
func (UpdateRentCommand) ResultPrototype() any     { return &dto.Rent{} }

type AcceptRentCommand struct {
	RentID string `validate:"required"`
	Actor  access.Actor
}

func (AcceptRentCommand) Key() string               { return acceptRentKey }
func (c AcceptRentCommand) Caller() access.Actor    { return c.Actor }
func (AcceptRentCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

type RejectRentCommand struct {
	RentID string `validate:"required"`
	Actor  access.Actor
}

func (RejectRentCommand) Key() string               { return rejectRentKey }
func (c RejectRentCommand) Caller() access.Actor    { return c.Actor }
func (RejectRentCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

// CancelRentCommand may be issued by either side of the rent.
type CancelRentCommand struct {
	RentID string `validate:"required"`
	Actor  access.Actor
}

func (CancelRentCommand) Key() string            { return cancelRentKey }
func (c CancelRentCommand) Caller() access.Actor { return c.Actor }

type PayRentCommand struct {
	RentID string `validate:"required"`
	Actor  access.Actor
}

func (PayRentCommand) Key() string            { return payRentKey }
func (c PayRentCommand) Caller() access.Actor { return c.Actor }

type CreateRentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *CreateRentHandler) Handle(ctx context.Context, cmd CreateRentCommand) (dto.Rent, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rent{}, err
	}
	defer m.Close()

	prop, err := m.Unit.Properties().ByID(m.Ctx, property.ID(cmd.PropertyID))
	if err != nil {
		return dto.Rent{}, err
	}
	period, err := daterange.New(cmd.Start, cmd.End)
	if err != nil {
		return dto.Rent{}, err
	}
	now := h.Clock.Now()
	blocking, err := reserve(m.Ctx, m.Unit, prop.ID, period, now)
	if err != nil {
		return dto.Rent{}, err
	}
	r, err := rent.New(rent.CreateParams{
		ID:       rent.ID(cmd.ID),
		Property: prop,
		TenantID: cmd.Actor.ID,
		Period:   period,
		Daily:    cmd.Daily,
		Blocking: blocking,
		Now:      now,
	})
	if err != nil {
		return dto.Rent{}, err
	}
	if err := m.Unit.Rents().Save(m.Ctx, r); err != nil {
		return dto.Rent{}, err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, r); err != nil {
		return dto.Rent{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.Rent{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("rent created", "rent_id", r.ID, "property_id", r.PropertyID, "tenant_id", r.TenantID, "total", r.Total.String())
	}
	return dto.MapRent(r, prop), nil
}

type UpdateRentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *UpdateRentHandler) Handle(ctx context.Context, cmd UpdateRentCommand) (dto.Rent, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rent{}, err
	}
	defer m.Close()

	r, err := m.Unit.Rents().ByID(m.Ctx, rent.ID(cmd.RentID))
	if err != nil {
		return dto.Rent{}, err
	}
	if !cmd.Actor.Is(r.TenantID) {
		return dto.Rent{}, fmt.Errorf("%w: only the tenant can change the rent", access.ErrForbidden)
	}
	prop, err := m.Unit.Properties().ByID(m.Ctx, r.PropertyID)
	if err != nil {
		return dto.Rent{}, err
	}
	period, err := daterange.New(cmd.Start, cmd.End)
	if err != nil {
		return dto.Rent{}, err
	}
	now := h.Clock.Now()
	blocking, err := reserve(m.Ctx, m.Unit, prop.ID, period, now)
	if err != nil {
		return dto.Rent{}, err
	}
	if err := r.Reschedule(rent.RescheduleParams{
		Property: prop,
		Period:   period,
		Daily:    cmd.Daily,
		Blocking: blocking,
		Now:      now,
	}); err != nil {
		return dto.Rent{}, err
	}
	if err := m.Unit.Rents().Save(m.Ctx, r); err != nil {
		return dto.Rent{}, err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, r); err != nil {
		return dto.Rent{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.Rent{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("rent updated", "rent_id", r.ID, "total", r.Total.String())
	}
	return dto.MapRent(r, prop), nil
}

// reserve returns the rents blocking period and claims the property's
// calendar in unit. Of two units booking the same property only the first
// to commit succeeds; the other fails with uow.ErrConcurrentUpdate and is
// re-run against the committed state.
func reserve(ctx context.Context, unit uow.UnitOfWork, propertyID property.ID, period daterange.DateRange, now time.Time) ([]*rent.Rent, error) {
	repo := unit.Rents()
	cal, err := repo.Calendar(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	blocking, err := repo.Blocking(ctx, propertyID, period)
	if err != nil {
		return nil, err
	}
	cal.Touch(now)
	if err := repo.SaveCalendar(ctx, cal); err != nil {
		return nil, err
	}
	return blocking, nil
}

// TransitionHandler moves a rent through its status machine. One instance
// serves the accept, reject, cancel and pay commands.
type TransitionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *TransitionHandler) Accept() commands.Handler[AcceptRentCommand, dto.Rent] {
	return commands.HandlerFunc[AcceptRentCommand, dto.Rent](func(ctx context.Context, cmd AcceptRentCommand) (dto.Rent, error) {
		return h.run(ctx, cmd.RentID, "accepted", func(execCtx context.Context, unit uow.UnitOfWork, r *rent.Rent, now time.Time) error {
			if !cmd.Actor.Is(r.LandlordID) {
				return fmt.Errorf("%w: only the landlord can accept the rent", access.ErrForbidden)
			}
			blocking, err := reserve(execCtx, unit, r.PropertyID, r.Period, now)
			if err != nil {
				return err
			}
			return r.Accept(blocking, now)
		})
	})
}

func (h *TransitionHandler) Reject() commands.Handler[RejectRentCommand, dto.Rent] {
	return commands.HandlerFunc[RejectRentCommand, dto.Rent](func(ctx context.Context, cmd RejectRentCommand) (dto.Rent, error) {
		return h.run(ctx, cmd.RentID, "rejected", func(_ context.Context, _ uow.UnitOfWork, r *rent.Rent, now time.Time) error {
			if !cmd.Actor.Is(r.LandlordID) {
				return fmt.Errorf("%w: only the landlord can reject the rent", access.ErrForbidden)
			}
			return r.Reject(now)
		})
	})
}

func (h *TransitionHandler) Cancel() commands.Handler[CancelRentCommand, dto.Rent] {
	return commands.HandlerFunc[CancelRentCommand, dto.Rent](func(ctx context.Context, cmd CancelRentCommand) (dto.Rent, error) {
		return h.run(ctx, cmd.RentID, "cancelled", func(_ context.Context, _ uow.UnitOfWork, r *rent.Rent, now time.Time) error {
			if !r.Involves(cmd.Actor.ID) && !cmd.Actor.IsAdmin() {
				return fmt.Errorf("%w: not a party of the rent", access.ErrForbidden)
			}
			return r.Cancel(now)
		})
	})
}

func (h *TransitionHandler) Pay() commands.Handler[PayRentCommand, dto.Rent] {
	return commands.HandlerFunc[PayRentCommand, dto.Rent](func(ctx context.Context, cmd PayRentCommand) (dto.Rent, error) {
		return h.run(ctx, cmd.RentID, "paid", func(_ context.Context, _ uow.UnitOfWork, r *rent.Rent, now time.Time) error {
			if !cmd.Actor.Is(r.TenantID) {
				return fmt.Errorf("%w: only the tenant can pay the rent", access.ErrForbidden)
			}
			return r.Pay(now)
		})
	})
}

func (h *TransitionHandler) run(ctx context.Context, id, verb string, apply func(context.Context, uow.UnitOfWork, *rent.Rent, time.Time) error) (dto.Rent, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rent{}, err
	}
	defer m.Close()

	r, err := m.Unit.Rents().ByID(m.Ctx, rent.ID(id))
	if err != nil {
		return dto.Rent{}, err
	}
	if err := apply(m.Ctx, m.Unit, r, h.Clock.Now()); err != nil {
		return dto.Rent{}, err
	}
	if err := m.Unit.Rents().Save(m.Ctx, r); err != nil {
		return dto.Rent{}, err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, r); err != nil {
		return dto.Rent{}, err
	}
	prop, err := m.Unit.Properties().ByID(m.Ctx, r.PropertyID)
	if err != nil {
		prop = nil
	}
	if err := m.Commit(); err != nil {
		return dto.Rent{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("rent "+verb, "rent_id", r.ID, "status", r.Status.String())
	}
	return dto.MapRent(r, prop), nil
}

var (
	_ commands.Handler[CreateRentCommand, dto.Rent] = (*CreateRentHandler)(nil)
	_ commands.Handler[UpdateRentCommand, dto.Rent] = (*UpdateRentHandler)(nil)
)
