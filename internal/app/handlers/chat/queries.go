package chat

import (
	"context"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	"erent/internal/app/queries"
	domainchat "erent/internal/domain/chat"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	conversationKey  = "chat.conversation"
	conversationsKey = "chat.conversations"
	chatUnreadKey    = "chat.unread_count"
)

// ConversationQuery pages through the messages between the caller and PeerID,
// newest first.
type ConversationQuery struct {
	Actor  access.Actor
	PeerID string `validate:"required"`
	Paging paging.Params
}

func (ConversationQuery) Key() string            { return conversationKey }
func (q ConversationQuery) Caller() access.Actor { return q.Actor }

type ConversationHandler struct {
	Messages domainchat.Repository
}

func (h *ConversationHandler) Handle(ctx context.Context, q ConversationQuery) (dto.Page[dto.Message], error) {
	params := q.Paging
	if !params.RetrieveAll && params.PageSize == nil {
		params.PageSize = paging.Int(domainchat.DefaultPageSize)
		if params.Page == nil {
			params.Page = paging.Int(0)
		}
	}
	page, err := h.Messages.Between(ctx, q.Actor.ID, user.ID(q.PeerID), params)
	if err != nil {
		return dto.Page[dto.Message]{}, err
	}
	return dto.MapPage(page, dto.MapMessage), nil
}

type ConversationsQuery struct {
	Actor access.Actor
}

func (ConversationsQuery) Key() string            { return conversationsKey }
func (q ConversationsQuery) Caller() access.Actor { return q.Actor }

type ConversationsHandler struct {
	Messages domainchat.Repository
}

func (h *ConversationsHandler) Handle(ctx context.Context, q ConversationsQuery) ([]dto.Conversation, error) {
	convs, err := h.Messages.Conversations(ctx, q.Actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, dto.MapConversation(c))
	}
	return out, nil
}

type UnreadCountQuery struct {
	Actor access.Actor
}

func (UnreadCountQuery) Key() string            { return chatUnreadKey }
func (q UnreadCountQuery) Caller() access.Actor { return q.Actor }

type UnreadCountHandler struct {
	Messages domainchat.Repository
}

func (h *UnreadCountHandler) Handle(ctx context.Context, q UnreadCountQuery) (dto.Count, error) {
	n, err := h.Messages.UnreadCount(ctx, q.Actor.ID)
	if err != nil {
		return dto.Count{}, err
	}
	return dto.Count{Count: n}, nil
}

var (
	_ queries.Handler[ConversationQuery, dto.Page[dto.Message]] = (*ConversationHandler)(nil)
	_ queries.Handler[ConversationsQuery, []dto.Conversation]   = (*ConversationsHandler)(nil)
	_ queries.Handler[UnreadCountQuery, dto.Count]              = (*UnreadCountHandler)(nil)
)
