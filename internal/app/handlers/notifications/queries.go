package notifications

import (
	"context"
	"fmt"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/notification"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	listNotificationsKey = "notifications.list"
	getNotificationKey   = "notifications.get"
	unreadCountKey       = "notifications.unread_count"
)

// ListNotificationsQuery lists notifications newest first. Administrators may
// list another user's notifications through UserID.
type ListNotificationsQuery struct {
	Actor         access.Actor
	UserID        string
	Type          *notification.Type
	Read          *bool
	ReferenceType string
	Text          string
	Paging        paging.Params
}

func (ListNotificationsQuery) Key() string            { return listNotificationsKey }
func (q ListNotificationsQuery) Caller() access.Actor { return q.Actor }

type ListNotificationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.Page[dto.Notification], error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.Notification]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	owner := q.Actor.ID
	if q.UserID != "" && q.Actor.IsAdmin() {
		owner = user.ID(q.UserID)
	}
	page, err := unit.Notifications().Search(execCtx, notification.SearchParams{
		UserID:        owner,
		Type:          q.Type,
		Read:          q.Read,
		ReferenceType: q.ReferenceType,
		Text:          q.Text,
		Paging:        q.Paging,
	})
	if err != nil {
		return dto.Page[dto.Notification]{}, err
	}
	return dto.MapPage(page, dto.MapNotification), nil
}

type GetNotificationQuery struct {
	Actor          access.Actor
	NotificationID string `validate:"required"`
}

func (GetNotificationQuery) Key() string            { return getNotificationKey }
func (q GetNotificationQuery) Caller() access.Actor { return q.Actor }

type GetNotificationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetNotificationHandler) Handle(ctx context.Context, q GetNotificationQuery) (dto.Notification, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Notification{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	n, err := unit.Notifications().ByID(execCtx, notification.ID(q.NotificationID))
	if err != nil {
		return dto.Notification{}, err
	}
	if !q.Actor.Is(n.UserID) {
		return dto.Notification{}, fmt.Errorf("%w: %w", access.ErrForbidden, notification.ErrNotRecipient)
	}
	return dto.MapNotification(n), nil
}

type UnreadCountQuery struct {
	Actor access.Actor
}

func (UnreadCountQuery) Key() string            { return unreadCountKey }
func (q UnreadCountQuery) Caller() access.Actor { return q.Actor }

type UnreadCountHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnreadCountHandler) Handle(ctx context.Context, q UnreadCountQuery) (dto.Count, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Count{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	n, err := unit.Notifications().UnreadCount(execCtx, q.Actor.ID)
	if err != nil {
		return dto.Count{}, err
	}
	return dto.Count{Count: n}, nil
}

var (
	_ queries.Handler[ListNotificationsQuery, dto.Page[dto.Notification]] = (*ListNotificationsHandler)(nil)
	_ queries.Handler[GetNotificationQuery, dto.Notification]             = (*GetNotificationHandler)(nil)
	_ queries.Handler[UnreadCountQuery, dto.Count]                        = (*UnreadCountHandler)(nil)
)
