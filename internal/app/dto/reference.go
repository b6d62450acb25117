package dto

import (
	"time"

	"erent/internal/domain/reference"
)

type ReferenceEntry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func MapReferenceEntry(e *reference.Entry) ReferenceEntry {
	return ReferenceEntry{
		ID:          string(e.ID),
		Kind:        string(e.Kind),
		Name:        e.Name,
		Code:        e.Code,
		Description: e.Description,
		ParentID:    string(e.ParentID),
		Active:      e.Active,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
