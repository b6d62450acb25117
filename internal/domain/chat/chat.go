package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const maxTextLength = 2000

// DefaultPageSize applies to conversation history when the caller gives none.
const DefaultPageSize = 50

var (
	ErrNotFound          = errors.New("chat: message not found")
	ErrTextRequired      = errors.New("chat: message text is required")
	ErrTextTooLong       = errors.New("chat: message must be at most 2000 characters")
	ErrReceiverRequired  = errors.New("chat: receiver is required")
	ErrSelfMessage       = errors.New("chat: cannot send a message to yourself")
	ErrNotRecipient      = errors.New("chat: only the receiver can mark a message read")
	ErrNotParticipant    = errors.New("chat: not a participant of the conversation")
	ErrInactiveRecipient = errors.New("chat: receiver is not active")
)

type MessageID string

type Message struct {
	ID         MessageID
	SenderID   user.ID
	ReceiverID user.ID
	PropertyID property.ID
	Text       string
	Read       bool
	SentAt     time.Time
	ReadAt     *time.Time
}

// Conversation summarises the thread between a user and one peer.
type Conversation struct {
	PeerID      user.ID
	LastMessage Message
	UnreadCount int
}

type Repository interface {
	ByID(ctx context.Context, id MessageID) (*Message, error)
	Save(ctx context.Context, m *Message) error
	// Between lists messages exchanged by two users, newest first.
	Between(ctx context.Context, a, b user.ID, page paging.Params) (paging.Page[*Message], error)
	// Conversations lists the user's threads ordered by latest activity.
	Conversations(ctx context.Context, userID user.ID) ([]Conversation, error)
	MarkRead(ctx context.Context, id MessageID, at time.Time) error
	// MarkConversationRead flags every message peer sent to userID and returns how many changed.
	MarkConversationRead(ctx context.Context, userID, peerID user.ID, at time.Time) (int, error)
	UnreadCount(ctx context.Context, userID user.ID) (int, error)
}

type SendParams struct {
	ID         MessageID
	SenderID   user.ID
	ReceiverID user.ID
	PropertyID property.ID
	Text       string
	Now        time.Time
}

func NewMessage(params SendParams) (*Message, error) {
	if strings.TrimSpace(string(params.ReceiverID)) == "" {
		return nil, ErrReceiverRequired
	}
	if params.SenderID == params.ReceiverID {
		return nil, ErrSelfMessage
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return nil, ErrTextRequired
	}
	if len([]rune(text)) > maxTextLength {
		return nil, ErrTextTooLong
	}
	return &Message{
		ID:         params.ID,
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		PropertyID: params.PropertyID,
		Text:       text,
		SentAt:     params.Now.UTC(),
	}, nil
}

// MarkRead flags the message read on behalf of reader, who must be the receiver.
func (m *Message) MarkRead(reader user.ID, now time.Time) (bool, error) {
	if m.ReceiverID != reader {
		return false, ErrNotRecipient
	}
	if m.Read {
		return false, nil
	}
	at := now.UTC()
	m.Read = true
	m.ReadAt = &at
	return true, nil
}

// Peer returns the other side of the message from the viewpoint of id.
func (m *Message) Peer(id user.ID) user.ID {
	if m.SenderID == id {
		return m.ReceiverID
	}
	return m.SenderID
}

func (m *Message) Involves(id user.ID) bool {
	return m.SenderID == id || m.ReceiverID == id
}

// ConversationKey identifies the thread between two users regardless of direction.
func ConversationKey(a, b user.ID) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + ":" + string(b)
}

// Summarize groups messages into per-peer conversations for userID, newest first.
func Summarize(userID user.ID, messages []*Message) []Conversation {
	byPeer := make(map[user.ID]*Conversation)
	for _, m := range messages {
		if m == nil || !m.Involves(userID) {
			continue
		}
		peer := m.Peer(userID)
		conv, ok := byPeer[peer]
		if !ok {
			conv = &Conversation{PeerID: peer, LastMessage: *m}
			byPeer[peer] = conv
		}
		if m.SentAt.After(conv.LastMessage.SentAt) {
			conv.LastMessage = *m
		}
		if m.ReceiverID == userID && !m.Read {
			conv.UnreadCount++
		}
	}
	out := make([]Conversation, 0, len(byPeer))
	for _, conv := range byPeer {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.SentAt.After(out[j].LastMessage.SentAt)
	})
	return out
}
