package dto

import (
	"time"

	"erent/internal/domain/notification"
)

type Notification struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	TypeID        int        `json:"type_id"`
	Type          string     `json:"type"`
	ReferenceID   string     `json:"reference_id,omitempty"`
	ReferenceType string     `json:"reference_type,omitempty"`
	Read          bool       `json:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func MapNotification(n *notification.Notification) Notification {
	return Notification{
		ID:            string(n.ID),
		UserID:        string(n.UserID),
		Title:         n.Title,
		Message:       n.Message,
		TypeID:        int(n.Type),
		Type:          n.Type.String(),
		ReferenceID:   n.ReferenceID,
		ReferenceType: n.ReferenceType,
		Read:          n.Read,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}
