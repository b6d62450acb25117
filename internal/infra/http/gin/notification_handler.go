package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	notificationsapp "erent/internal/app/handlers/notifications"
	"erent/internal/app/queries"
	"erent/internal/domain/notification"
)

type NotificationsHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	UnreadCount(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type NotificationsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// List defaults to the caller's notifications; administrators may pass user_id.
func (h NotificationsHandler) List(c *gin.Context) {
	q := readQuery(c)
	query := notificationsapp.ListNotificationsQuery{
		Actor:         currentActor(c),
		UserID:        q.str("user_id"),
		Read:          q.boolPtr("read"),
		ReferenceType: q.str("reference_type"),
		Text:          q.str("text"),
		Paging:        q.paging(),
	}
	if raw := q.str("type"); raw != "" {
		kind, err := notification.ParseType(raw)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		query.Type = &kind
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[notificationsapp.ListNotificationsQuery, dto.Page[dto.Notification]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationsHandler) Get(c *gin.Context) {
	query := notificationsapp.GetNotificationQuery{Actor: currentActor(c), NotificationID: c.Param("id")}
	result, err := queries.Ask[notificationsapp.GetNotificationQuery, dto.Notification](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationsHandler) UnreadCount(c *gin.Context) {
	query := notificationsapp.UnreadCountQuery{Actor: currentActor(c)}
	result, err := queries.Ask[notificationsapp.UnreadCountQuery, dto.Count](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationsHandler) MarkRead(c *gin.Context) {
	cmd := notificationsapp.MarkReadCommand{NotificationID: c.Param("id"), Actor: currentActor(c)}
	result, err := commands.Dispatch[notificationsapp.MarkReadCommand, dto.Notification](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationsHandler) MarkAllRead(c *gin.Context) {
	cmd := notificationsapp.MarkAllReadCommand{Actor: currentActor(c)}
	result, err := commands.Dispatch[notificationsapp.MarkAllReadCommand, dto.Count](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ NotificationsHTTP = NotificationsHandler{}
