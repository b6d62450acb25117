package memory

import (
	"erent/internal/domain/chat"
	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/shared/events"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

func cloneProperty(p *property.Property) *property.Property {
	if p == nil {
		return nil
	}
	out := *p
	out.EventRecorder = events.EventRecorder{}
	out.Amenities = append([]reference.ID(nil), p.Amenities...)
	out.Images = append([]property.Image(nil), p.Images...)
	return &out
}

func cloneRent(r *rent.Rent) *rent.Rent {
	if r == nil {
		return nil
	}
	out := *r
	out.EventRecorder = events.EventRecorder{}
	return &out
}

func cloneCalendar(c *rent.Calendar) *rent.Calendar {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func cloneAppointment(a *viewing.Appointment) *viewing.Appointment {
	if a == nil {
		return nil
	}
	out := *a
	out.EventRecorder = events.EventRecorder{}
	return &out
}

func cloneReview(r *reviews.Review) *reviews.Review {
	if r == nil {
		return nil
	}
	out := *r
	out.EventRecorder = events.EventRecorder{}
	return &out
}

func cloneEntry(e *reference.Entry) *reference.Entry {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

func cloneUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	out := *u
	out.Roles = append([]user.Role(nil), u.Roles...)
	return &out
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	if n == nil {
		return nil
	}
	out := *n
	if n.ReadAt != nil {
		at := *n.ReadAt
		out.ReadAt = &at
	}
	return &out
}

func cloneMessage(m *chat.Message) *chat.Message {
	if m == nil {
		return nil
	}
	out := *m
	if m.ReadAt != nil {
		at := *m.ReadAt
		out.ReadAt = &at
	}
	return &out
}
