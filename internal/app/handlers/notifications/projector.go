package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

// Event is a relayed domain event as the projector consumes it. Type may
// carry the CloudEvents version suffix.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// Inbox deduplicates consumed events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Projector turns rent and viewing events into notifications for the people
// involved and mails them a copy. Unknown events are ignored.
type Projector struct {
	UoWFactory uow.UoWFactory
	Inbox      Inbox
	Mailer     policies.Mailer
	Clock      policies.Clock
	Logger     *slog.Logger
}

var notificationNamespace = uuid.MustParse("2f1c7a52-4b8e-4f0e-9a61-6f3d0c8b1e27")

type delivery struct {
	recipient user.ID
	kind      notification.Type
	title     string
	message   string
}

func (p *Projector) Project(ctx context.Context, ev Event) error {
	name := strings.TrimSuffix(ev.Type, ".v1")
	if !strings.HasPrefix(name, "rent.") && !strings.HasPrefix(name, "viewing.") {
		return nil
	}
	if p.Inbox != nil {
		seen, err := p.Inbox.Seen(ctx, ev.ID)
		if err != nil {
			return err
		}
		if seen {
			p.logger().Debug("event already projected", "event_id", ev.ID, "event", name)
			return nil
		}
	}
	created, err := p.project(ctx, ev.ID, name, ev.Data)
	if err != nil {
		if p.Inbox != nil {
			if ferr := p.Inbox.Forget(context.WithoutCancel(ctx), ev.ID); ferr != nil {
				p.logger().Warn("inbox forget failed", "event_id", ev.ID, "error", ferr)
			}
		}
		return err
	}
	p.mail(ctx, created)
	return nil
}

type mailing struct {
	to *user.User
	n  *notification.Notification
}

func (p *Projector) project(ctx context.Context, eventID, name string, data json.RawMessage) ([]mailing, error) {
	m, err := handlersupport.BeginUnit(ctx, p.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var (
		deliveries []delivery
		reference  string
		refType    string
	)
	switch {
	case strings.HasPrefix(name, "rent."):
		var notice rent.Notice
		if err := json.Unmarshal(data, &notice); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		title := propertyTitle(m.Ctx, m.Unit, notice.PropertyID)
		deliveries = rentDeliveries(name, notice, title)
		reference, refType = string(notice.RentID), notification.ReferenceRent
	default:
		var notice viewing.Notice
		if err := json.Unmarshal(data, &notice); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		title := propertyTitle(m.Ctx, m.Unit, notice.PropertyID)
		deliveries = viewingDeliveries(name, notice, title)
		reference, refType = string(notice.AppointmentID), notification.ReferenceViewing
	}
	if len(deliveries) == 0 {
		return nil, nil
	}

	now := p.Clock.Now()
	out := make([]mailing, 0, len(deliveries))
	for _, d := range deliveries {
		recipient, err := m.Unit.Users().ByID(m.Ctx, d.recipient)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				p.logger().Warn("notification recipient missing", "event_id", eventID, "user_id", d.recipient)
				continue
			}
			return nil, err
		}
		n, err := notification.New(notification.CreateParams{
			ID:            NotificationID(eventID, d.recipient),
			UserID:        d.recipient,
			Title:         d.title,
			Message:       d.message,
			Type:          d.kind,
			ReferenceID:   reference,
			ReferenceType: refType,
			Now:           now,
		})
		if err != nil {
			return nil, err
		}
		if err := m.Unit.Notifications().Save(m.Ctx, n); err != nil {
			return nil, err
		}
		out = append(out, mailing{to: recipient, n: n})
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}
	p.logger().Info("notifications created", "event_id", eventID, "event", name, "count", len(out))
	return out, nil
}

// mail is best effort: the notification is already stored.
func (p *Projector) mail(ctx context.Context, items []mailing) {
	if p.Mailer == nil {
		return
	}
	for _, item := range items {
		err := p.Mailer.Send(ctx, policies.Email{
			ToName:  item.to.FullName(),
			ToAddr:  item.to.Email,
			Subject: item.n.Title,
			Text:    item.n.Message,
		})
		if err != nil {
			p.logger().Warn("notification mail failed", "notification_id", item.n.ID, "user_id", item.to.ID, "error", err)
		}
	}
}

// NotificationID derives the id of the notification an event produces for a
// recipient, so redelivered events overwrite instead of duplicating.
func NotificationID(eventID string, recipient user.ID) notification.ID {
	return notification.ID(uuid.NewSHA1(notificationNamespace, []byte(eventID+"/"+string(recipient))).String())
}

func rentDeliveries(name string, n rent.Notice, title string) []delivery {
	period := n.Start.Format("2006-01-02") + " to " + n.End.Format("2006-01-02")
	switch name {
	case rent.EventCreated:
		return []delivery{{n.LandlordID, notification.TypeRentCreated, "New rent request",
			fmt.Sprintf("You have a new rent request for %s from %s (%s).", title, period, n.Total.String())}}
	case rent.EventAccepted:
		return []delivery{{n.TenantID, notification.TypeRentAccepted, "Rent accepted",
			fmt.Sprintf("Your rent of %s from %s was accepted. You can now pay %s.", title, period, n.Total.String())}}
	case rent.EventRejected:
		return []delivery{{n.TenantID, notification.TypeRentRejected, "Rent rejected",
			fmt.Sprintf("Your rent request for %s from %s was rejected.", title, period)}}
	case rent.EventCancelled:
		msg := fmt.Sprintf("The rent of %s from %s was cancelled.", title, period)
		return []delivery{
			{n.TenantID, notification.TypeRentCancelled, "Rent cancelled", msg},
			{n.LandlordID, notification.TypeRentCancelled, "Rent cancelled", msg},
		}
	case rent.EventPaid:
		return []delivery{{n.LandlordID, notification.TypeRentPaid, "Rent paid",
			fmt.Sprintf("The rent of %s from %s was paid (%s).", title, period, n.Total.String())}}
	}
	return nil
}

func viewingDeliveries(name string, n viewing.Notice, title string) []delivery {
	slot := n.Start.Format("2006-01-02 15:04")
	withNote := func(msg string) string {
		if n.Note == "" {
			return msg
		}
		return msg + " Note: " + n.Note
	}
	switch name {
	case viewing.EventCreated:
		return []delivery{{n.LandlordID, notification.TypeViewingCreated, "New viewing request",
			withNote(fmt.Sprintf("A viewing of %s was requested for %s.", title, slot))}}
	case viewing.EventApproved:
		return []delivery{{n.TenantID, notification.TypeViewingApproved, "Viewing approved",
			withNote(fmt.Sprintf("Your viewing of %s on %s was approved.", title, slot))}}
	case viewing.EventRejected:
		return []delivery{{n.TenantID, notification.TypeViewingRejected, "Viewing rejected",
			withNote(fmt.Sprintf("Your viewing of %s on %s was rejected.", title, slot))}}
	case viewing.EventCancelled:
		msg := fmt.Sprintf("The viewing of %s on %s was cancelled.", title, slot)
		return []delivery{
			{n.TenantID, notification.TypeViewingCancelled, "Viewing cancelled", msg},
			{n.LandlordID, notification.TypeViewingCancelled, "Viewing cancelled", msg},
		}
	}
	return nil
}

func propertyTitle(ctx context.Context, unit uow.UnitOfWork, id property.ID) string {
	p, err := unit.Properties().ByID(ctx, id)
	if err != nil {
		return "property " + string(id)
	}
	return p.Title
}

func (p *Projector) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
