package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/notification"
)

const (
	markReadKey    = "notifications.mark_read"
	markAllReadKey = "notifications.mark_all_read"
)

type MarkReadCommand struct {
	NotificationID string `validate:"required"`
	Actor          access.Actor
}

func (MarkReadCommand) Key() string            { return markReadKey }
func (c MarkReadCommand) Caller() access.Actor { return c.Actor }

// MarkAllReadCommand flags every unread notification of the caller.
type MarkAllReadCommand struct {
	Actor access.Actor
}

func (MarkAllReadCommand) Key() string            { return markAllReadKey }
func (c MarkAllReadCommand) Caller() access.Actor { return c.Actor }

type Handler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) MarkRead() commands.Handler[MarkReadCommand, dto.Notification] {
	return commands.HandlerFunc[MarkReadCommand, dto.Notification](h.markRead)
}

func (h *Handler) MarkAllRead() commands.Handler[MarkAllReadCommand, dto.Count] {
	return commands.HandlerFunc[MarkAllReadCommand, dto.Count](h.markAllRead)
}

func (h *Handler) markRead(ctx context.Context, cmd MarkReadCommand) (dto.Notification, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Notification{}, err
	}
	defer m.Close()

	n, err := m.Unit.Notifications().ByID(m.Ctx, notification.ID(cmd.NotificationID))
	if err != nil {
		return dto.Notification{}, err
	}
	if n.UserID != cmd.Actor.ID {
		return dto.Notification{}, fmt.Errorf("%w: %w", access.ErrForbidden, notification.ErrNotRecipient)
	}
	if n.MarkRead(h.Clock.Now()) {
		if err := m.Unit.Notifications().Save(m.Ctx, n); err != nil {
			return dto.Notification{}, err
		}
	}
	if err := m.Commit(); err != nil {
		return dto.Notification{}, err
	}
	return dto.MapNotification(n), nil
}

func (h *Handler) markAllRead(ctx context.Context, cmd MarkAllReadCommand) (dto.Count, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Count{}, err
	}
	defer m.Close()

	changed, err := m.Unit.Notifications().MarkAllRead(m.Ctx, cmd.Actor.ID, h.Clock.Now())
	if err != nil {
		return dto.Count{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.Count{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("notifications marked read", "user_id", cmd.Actor.ID, "count", changed)
	}
	return dto.Count{Count: changed}, nil
}
