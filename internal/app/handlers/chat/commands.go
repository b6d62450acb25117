package chat

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
	domainchat "erent/internal/domain/chat"
	"erent/internal/domain/property"
	"erent/internal/domain/user"
)

const (
	sendMessageKey      = "chat.send"
	markMessageReadKey  = "chat.mark_read"
	markConversationKey = "chat.mark_conversation_read"
)

type SendMessageCommand struct {
	ID         string `validate:"required"`
	Actor      access.Actor
	ReceiverID string `validate:"required"`
	PropertyID string
	Text       string `validate:"required,max=2000"`
	IdemKey    string
}

func (SendMessageCommand) Key() string              { return sendMessageKey }
func (c SendMessageCommand) Caller() access.Actor   { return c.Actor }
func (c SendMessageCommand) IdempotencyKey() string { return c.IdemKey }
func (SendMessageCommand) ResultPrototype() any     { return &dto.Message{} }

type MarkMessageReadCommand struct {
	MessageID string `validate:"required"`
	Actor     access.Actor
}

func (MarkMessageReadCommand) Key() string            { return markMessageReadKey }
func (c MarkMessageReadCommand) Caller() access.Actor { return c.Actor }

// MarkConversationReadCommand flags every message PeerID sent to the caller.
type MarkConversationReadCommand struct {
	PeerID string `validate:"required"`
	Actor  access.Actor
}

func (MarkConversationReadCommand) Key() string            { return markConversationKey }
func (c MarkConversationReadCommand) Caller() access.Actor { return c.Actor }

// Handler serves chat writes. Messages live outside the unit of work; the
// unit is only read to check the receiver.
type Handler struct {
	Messages   domainchat.Repository
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) Send() commands.Handler[SendMessageCommand, dto.Message] {
	return commands.HandlerFunc[SendMessageCommand, dto.Message](h.send)
}

func (h *Handler) MarkRead() commands.Handler[MarkMessageReadCommand, dto.Message] {
	return commands.HandlerFunc[MarkMessageReadCommand, dto.Message](h.markRead)
}

func (h *Handler) MarkConversationRead() commands.Handler[MarkConversationReadCommand, dto.Count] {
	return commands.HandlerFunc[MarkConversationReadCommand, dto.Count](h.markConversationRead)
}

func (h *Handler) send(ctx context.Context, cmd SendMessageCommand) (dto.Message, error) {
	if err := h.checkReceiver(ctx, user.ID(cmd.ReceiverID), property.ID(cmd.PropertyID)); err != nil {
		return dto.Message{}, err
	}
	msg, err := domainchat.NewMessage(domainchat.SendParams{
		ID:         domainchat.MessageID(cmd.ID),
		SenderID:   cmd.Actor.ID,
		ReceiverID: user.ID(cmd.ReceiverID),
		PropertyID: property.ID(cmd.PropertyID),
		Text:       cmd.Text,
		Now:        h.Clock.Now(),
	})
	if err != nil {
		return dto.Message{}, err
	}
	if err := h.Messages.Save(ctx, msg); err != nil {
		return dto.Message{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("chat message sent", "message_id", msg.ID, "sender_id", msg.SenderID, "receiver_id", msg.ReceiverID)
	}
	return dto.MapMessage(msg), nil
}

func (h *Handler) checkReceiver(ctx context.Context, receiver user.ID, propertyID property.ID) error {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Users().ByID(execCtx, receiver)
	if err != nil {
		return err
	}
	if !u.Active {
		return domainchat.ErrInactiveRecipient
	}
	if propertyID != "" {
		if _, err := unit.Properties().ByID(execCtx, propertyID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) markRead(ctx context.Context, cmd MarkMessageReadCommand) (dto.Message, error) {
	msg, err := h.Messages.ByID(ctx, domainchat.MessageID(cmd.MessageID))
	if err != nil {
		return dto.Message{}, err
	}
	now := h.Clock.Now()
	changed, err := msg.MarkRead(cmd.Actor.ID, now)
	if err != nil {
		return dto.Message{}, fmt.Errorf("%w: %w", access.ErrForbidden, err)
	}
	if changed {
		if err := h.Messages.MarkRead(ctx, msg.ID, now); err != nil {
			return dto.Message{}, err
		}
	}
	return dto.MapMessage(msg), nil
}

func (h *Handler) markConversationRead(ctx context.Context, cmd MarkConversationReadCommand) (dto.Count, error) {
	n, err := h.Messages.MarkConversationRead(ctx, cmd.Actor.ID, user.ID(cmd.PeerID), h.Clock.Now())
	if err != nil {
		return dto.Count{}, err
	}
	if h.Logger != nil && n > 0 {
		h.Logger.Debug("chat conversation read", "user_id", cmd.Actor.ID, "peer_id", cmd.PeerID, "count", n)
	}
	return dto.Count{Count: n}, nil
}
