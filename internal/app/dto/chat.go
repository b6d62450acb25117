package dto

import (
	"time"

	"erent/internal/domain/chat"
)

type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	PropertyID string     `json:"property_id,omitempty"`
	Text       string     `json:"message_text"`
	Read       bool       `json:"is_read"`
	SentAt     time.Time  `json:"sent_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

func MapMessage(m *chat.Message) Message {
	return Message{
		ID:         string(m.ID),
		SenderID:   string(m.SenderID),
		ReceiverID: string(m.ReceiverID),
		PropertyID: string(m.PropertyID),
		Text:       m.Text,
		Read:       m.Read,
		SentAt:     m.SentAt,
		ReadAt:     m.ReadAt,
	}
}

type Conversation struct {
	PeerID      string  `json:"peer_id"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

func MapConversation(c chat.Conversation) Conversation {
	last := c.LastMessage
	return Conversation{
		PeerID:      string(c.PeerID),
		LastMessage: MapMessage(&last),
		UnreadCount: c.UnreadCount,
	}
}
