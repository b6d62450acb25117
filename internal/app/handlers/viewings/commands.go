package viewings

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
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

const (
	scheduleViewingKey = "viewings.schedule"
	approveViewingKey  = "viewings.approve"
	rejectViewingKey   = "viewings.reject"
	cancelViewingKey   = "viewings.cancel"
	completeDueKey     = "viewings.complete_due"
)

// ScheduleViewingCommand books a two hour slot on a property for the caller.
type ScheduleViewingCommand struct {
	ID         string `validate:"required"`
	Actor      access.Actor
	PropertyID string    `validate:"required"`
	Start      time.Time `validate:"required"`
	Note       string    `validate:"max=500"`
	IdemKey    string
}

func (ScheduleViewingCommand) Key() string              { return scheduleViewingKey }
func (c ScheduleViewingCommand) Caller() access.Actor   { return c.Actor }
func (c ScheduleViewingCommand) IdempotencyKey() string { return c.IdemKey }
func (ScheduleViewingCommand) ResultPrototype() any     { return &dto.Viewing{} }

type ApproveViewingCommand struct {
	ViewingID string `validate:"required"`
	Actor     access.Actor
	Note      string `validate:"max=500"`
}

func (ApproveViewingCommand) Key() string               { return approveViewingKey }
func (c ApproveViewingCommand) Caller() access.Actor    { return c.Actor }
func (ApproveViewingCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

type RejectViewingCommand struct {
	ViewingID string `validate:"required"`
	Actor     access.Actor
	Note      string `validate:"max=500"`
}

func (RejectViewingCommand) Key() string               { return rejectViewingKey }
func (c RejectViewingCommand) Caller() access.Actor    { return c.Actor }
func (RejectViewingCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

type CancelViewingCommand struct {
	ViewingID string `validate:"required"`
	Actor     access.Actor
}

func (CancelViewingCommand) Key() string            { return cancelViewingKey }
func (c CancelViewingCommand) Caller() access.Actor { return c.Actor }

// CompleteDueCommand closes every approved viewing whose slot has ended. It is
// issued by the scheduler, not by users.
type CompleteDueCommand struct{}

func (CompleteDueCommand) Key() string { return completeDueKey }

type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) Schedule() commands.Handler[ScheduleViewingCommand, dto.Viewing] {
	return commands.HandlerFunc[ScheduleViewingCommand, dto.Viewing](h.schedule)
}

func (h *Handler) Approve() commands.Handler[ApproveViewingCommand, dto.Viewing] {
	return commands.HandlerFunc[ApproveViewingCommand, dto.Viewing](func(ctx context.Context, cmd ApproveViewingCommand) (dto.Viewing, error) {
		return h.run(ctx, cmd.ViewingID, "approved", func(a *viewing.Appointment, now time.Time) error {
			if !cmd.Actor.Is(a.LandlordID) {
				return fmt.Errorf("%w: only the landlord can approve the viewing", access.ErrForbidden)
			}
			return a.Approve(cmd.Note, now)
		})
	})
}

func (h *Handler) Reject() commands.Handler[RejectViewingCommand, dto.Viewing] {
	return commands.HandlerFunc[RejectViewingCommand, dto.Viewing](func(ctx context.Context, cmd RejectViewingCommand) (dto.Viewing, error) {
		return h.run(ctx, cmd.ViewingID, "rejected", func(a *viewing.Appointment, now time.Time) error {
			if !cmd.Actor.Is(a.LandlordID) {
				return fmt.Errorf("%w: only the landlord can reject the viewing", access.ErrForbidden)
			}
			return a.Reject(cmd.Note, now)
		})
	})
}

func (h *Handler) Cancel() commands.Handler[CancelViewingCommand, dto.Viewing] {
	return commands.HandlerFunc[CancelViewingCommand, dto.Viewing](func(ctx context.Context, cmd CancelViewingCommand) (dto.Viewing, error) {
		return h.run(ctx, cmd.ViewingID, "cancelled", func(a *viewing.Appointment, now time.Time) error {
			if !a.Involves(cmd.Actor.ID) && !cmd.Actor.IsAdmin() {
				return fmt.Errorf("%w: not a party of the viewing", access.ErrForbidden)
			}
			return a.Cancel(now)
		})
	})
}

// CompleteDue returns the number of appointments it completed.
func (h *Handler) CompleteDue() commands.Handler[CompleteDueCommand, dto.Count] {
	return commands.HandlerFunc[CompleteDueCommand, dto.Count](h.completeDue)
}

func (h *Handler) schedule(ctx context.Context, cmd ScheduleViewingCommand) (dto.Viewing, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Viewing{}, err
	}
	defer m.Close()

	prop, err := m.Unit.Properties().ByID(m.Ctx, property.ID(cmd.PropertyID))
	if err != nil {
		return dto.Viewing{}, err
	}
	start := cmd.Start.UTC()
	existing, err := m.Unit.Viewings().Holding(m.Ctx, prop.ID, start, start.Add(viewing.SlotLength))
	if err != nil {
		return dto.Viewing{}, err
	}
	a, err := viewing.Schedule(viewing.ScheduleParams{
		ID:       viewing.ID(cmd.ID),
		Property: prop,
		TenantID: cmd.Actor.ID,
		Start:    start,
		Note:     cmd.Note,
		Existing: existing,
		Now:      h.Clock.Now(),
	})
	if err != nil {
		return dto.Viewing{}, err
	}
	if err := h.save(m, a); err != nil {
		return dto.Viewing{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("viewing scheduled", "viewing_id", a.ID, "property_id", a.PropertyID, "start", a.Start)
	}
	return dto.MapViewing(a), nil
}

func (h *Handler) run(ctx context.Context, id, verb string, apply func(*viewing.Appointment, time.Time) error) (dto.Viewing, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Viewing{}, err
	}
	defer m.Close()

	a, err := m.Unit.Viewings().ByID(m.Ctx, viewing.ID(id))
	if err != nil {
		return dto.Viewing{}, err
	}
	if err := apply(a, h.Clock.Now()); err != nil {
		return dto.Viewing{}, err
	}
	if err := h.save(m, a); err != nil {
		return dto.Viewing{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("viewing "+verb, "viewing_id", a.ID, "status", a.Status.String())
	}
	return dto.MapViewing(a), nil
}

func (h *Handler) completeDue(ctx context.Context, _ CompleteDueCommand) (dto.Count, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Count{}, err
	}
	defer m.Close()

	now := h.Clock.Now()
	due, err := m.Unit.Viewings().DueForCompletion(m.Ctx, now)
	if err != nil {
		return dto.Count{}, err
	}
	completed := 0
	for _, a := range due {
		if err := a.Complete(now); err != nil {
			continue
		}
		if err := m.Unit.Viewings().Save(m.Ctx, a); err != nil {
			return dto.Count{}, err
		}
		completed++
	}
	if err := m.Commit(); err != nil {
		return dto.Count{}, err
	}
	if h.Logger != nil && completed > 0 {
		h.Logger.Info("viewings completed", "count", completed)
	}
	return dto.Count{Count: completed}, nil
}

func (h *Handler) save(m *handlersupport.Managed, a *viewing.Appointment) error {
	if err := m.Unit.Viewings().Save(m.Ctx, a); err != nil {
		return err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, a); err != nil {
		return err
	}
	return m.Commit()
}
