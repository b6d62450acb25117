package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	chatapp "erent/internal/app/handlers/chat"
	"erent/internal/app/queries"
)

// ChatHTTP exposes direct messaging between users.
type ChatHTTP interface {
	Send(c *gin.Context)
	Conversations(c *gin.Context)
	Conversation(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkConversationRead(c *gin.Context)
	UnreadCount(c *gin.Context)
}

type ChatHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	PropertyID string `json:"property_id"`
	Text       string `json:"text"`
}

func (h ChatHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := chatapp.SendMessageCommand{
		ID:         newID(),
		Actor:      currentActor(c),
		ReceiverID: req.ReceiverID,
		PropertyID: req.PropertyID,
		Text:       req.Text,
		IdemKey:    idempotencyKey(c),
	}
	result, err := commands.Dispatch[chatapp.SendMessageCommand, dto.Message](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ChatHandler) Conversations(c *gin.Context) {
	query := chatapp.ConversationsQuery{Actor: currentActor(c)}
	result, err := queries.Ask[chatapp.ConversationsQuery, []dto.Conversation](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if result == nil {
		result = []dto.Conversation{}
	}
	c.JSON(http.StatusOK, result)
}

// Conversation pages the messages exchanged with :peer, newest first.
func (h ChatHandler) Conversation(c *gin.Context) {
	q := readQuery(c)
	query := chatapp.ConversationQuery{
		Actor:  currentActor(c),
		PeerID: c.Param("peer"),
		Paging: q.paging(),
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[chatapp.ConversationQuery, dto.Page[dto.Message]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) MarkRead(c *gin.Context) {
	cmd := chatapp.MarkMessageReadCommand{MessageID: c.Param("id"), Actor: currentActor(c)}
	result, err := commands.Dispatch[chatapp.MarkMessageReadCommand, dto.Message](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) MarkConversationRead(c *gin.Context) {
	cmd := chatapp.MarkConversationReadCommand{PeerID: c.Param("peer"), Actor: currentActor(c)}
	result, err := commands.Dispatch[chatapp.MarkConversationReadCommand, dto.Count](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ChatHandler) UnreadCount(c *gin.Context) {
	query := chatapp.UnreadCountQuery{Actor: currentActor(c)}
	result, err := queries.Ask[chatapp.UnreadCountQuery, dto.Count](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ChatHTTP = ChatHandler{}
