package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"erent/internal/app/uow"
	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

type propertyRepo struct{ u *Unit }

func (r propertyRepo) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	if p, ok := r.u.properties.get(id); ok {
		return p, nil
	}
	return nil, property.ErrNotFound
}

func (r propertyRepo) Search(ctx context.Context, params property.SearchParams) (property.SearchResult, error) {
	var matches []*property.Property
	for _, p := range r.u.properties.all() {
		if err := ctx.Err(); err != nil {
			return property.SearchResult{}, err
		}
		if params.Matches(p) {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].CreatedAt, matches[j].CreatedAt, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r propertyRepo) Save(ctx context.Context, p *property.Property) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	p.Version++
	r.u.properties.put(p.ID, p)
	return nil
}

func (r propertyRepo) Delete(ctx context.Context, id property.ID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.properties.get(id); !ok {
		return property.ErrNotFound
	}
	r.u.properties.remove(id)
	return nil
}

type rentRepo struct{ u *Unit }

func (r rentRepo) ByID(ctx context.Context, id rent.ID) (*rent.Rent, error) {
	if found, ok := r.u.rents.get(id); ok {
		return found, nil
	}
	return nil, rent.ErrNotFound
}

func (r rentRepo) Save(ctx context.Context, item *rent.Rent) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	item.Version++
	r.u.rents.put(item.ID, item)
	return nil
}

func (r rentRepo) Search(ctx context.Context, params rent.SearchParams) (paging.Page[*rent.Rent], error) {
	var matches []*rent.Rent
	for _, item := range r.u.rents.all() {
		if params.Matches(item) {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].CreatedAt, matches[j].CreatedAt, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r rentRepo) Blocking(ctx context.Context, propertyID property.ID, period daterange.DateRange) ([]*rent.Rent, error) {
	var out []*rent.Rent
	for _, item := range r.u.rents.all() {
		if item.PropertyID == propertyID && item.Blocks() && item.Period.Overlaps(period) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r rentRepo) Calendar(ctx context.Context, propertyID property.ID) (*rent.Calendar, error) {
	if c, ok := r.u.calendars.get(propertyID); ok {
		return c, nil
	}
	return rent.NewCalendar(propertyID), nil
}

func (r rentRepo) SaveCalendar(ctx context.Context, c *rent.Calendar) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	var stored int64
	if current, ok := r.u.calendars.get(c.PropertyID); ok {
		stored = current.Version
	}
	if stored != c.Version {
		return uow.ErrConcurrentUpdate
	}
	c.Version++
	r.u.calendars.put(c.PropertyID, c)
	return nil
}

type viewingRepo struct{ u *Unit }

func (r viewingRepo) ByID(ctx context.Context, id viewing.ID) (*viewing.Appointment, error) {
	if a, ok := r.u.viewings.get(id); ok {
		return a, nil
	}
	return nil, viewing.ErrNotFound
}

func (r viewingRepo) Save(ctx context.Context, a *viewing.Appointment) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	a.Version++
	r.u.viewings.put(a.ID, a)
	return nil
}

func (r viewingRepo) Search(ctx context.Context, params viewing.SearchParams) (paging.Page[*viewing.Appointment], error) {
	var matches []*viewing.Appointment
	for _, a := range r.u.viewings.all() {
		if params.Matches(a) {
			matches = append(matches, a)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].Start, matches[j].Start, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r viewingRepo) Holding(ctx context.Context, propertyID property.ID, start, end time.Time) ([]*viewing.Appointment, error) {
	var out []*viewing.Appointment
	for _, a := range r.u.viewings.all() {
		if a.PropertyID == propertyID && a.Status.Holding() && a.Start.Before(end) && start.Before(a.End) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r viewingRepo) DueForCompletion(ctx context.Context, now time.Time) ([]*viewing.Appointment, error) {
	var out []*viewing.Appointment
	for _, a := range r.u.viewings.all() {
		if a.Status == viewing.StatusApproved && !now.Before(a.End) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].End.Before(out[j].End) })
	return out, nil
}

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByID(ctx context.Context, id reviews.ReviewID) (*reviews.Review, error) {
	if found, ok := r.u.reviews.get(id); ok {
		return found, nil
	}
	return nil, reviews.ErrNotFound
}

func (r reviewRepo) ActiveByRent(ctx context.Context, rentID rent.ID, tenantID user.ID) ([]*reviews.Review, error) {
	var out []*reviews.Review
	for _, item := range r.u.reviews.all() {
		if item.Active && item.RentID == rentID && item.TenantID == tenantID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r reviewRepo) Search(ctx context.Context, params reviews.SearchParams) (paging.Page[*reviews.Review], error) {
	var matches []*reviews.Review
	for _, item := range r.u.reviews.all() {
		if params.Matches(item) {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].CreatedAt, matches[j].CreatedAt, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r reviewRepo) Save(ctx context.Context, item *reviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.reviews.put(item.ID, item)
	return nil
}

type referenceRepo struct{ u *Unit }

func (r referenceRepo) ByID(ctx context.Context, kind reference.Kind, id reference.ID) (*reference.Entry, error) {
	if e, ok := r.u.reference.get(referenceKey{kind: kind, id: id}); ok {
		return e, nil
	}
	return nil, reference.ErrNotFound
}

func (r referenceRepo) ByName(ctx context.Context, kind reference.Kind, name string) (*reference.Entry, error) {
	for _, e := range r.u.reference.all() {
		if e.Kind == kind && reference.SameName(e.Name, name) {
			return e, nil
		}
	}
	return nil, reference.ErrNotFound
}

func (r referenceRepo) List(ctx context.Context, params reference.ListParams) (paging.Page[*reference.Entry], error) {
	var matches []*reference.Entry
	for _, e := range r.u.reference.all() {
		if params.Matches(e) {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := strings.ToLower(matches[i].Name), strings.ToLower(matches[j].Name)
		if a == b {
			return matches[i].ID < matches[j].ID
		}
		return a < b
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r referenceRepo) Save(ctx context.Context, e *reference.Entry) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for _, other := range r.u.reference.all() {
		if other.Kind == e.Kind && other.ID != e.ID && reference.SameName(other.Name, e.Name) {
			return reference.ErrDuplicateName
		}
	}
	r.u.reference.put(referenceKey{kind: e.Kind, id: e.ID}, e)
	return nil
}

func (r referenceRepo) Delete(ctx context.Context, kind reference.Kind, id reference.ID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	key := referenceKey{kind: kind, id: id}
	if _, ok := r.u.reference.get(key); !ok {
		return reference.ErrNotFound
	}
	r.u.reference.remove(key)
	return nil
}

type userRepo struct{ u *Unit }

func (r userRepo) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	if found, ok := r.u.users.get(id); ok {
		return found, nil
	}
	return nil, user.ErrNotFound
}

func (r userRepo) ByEmail(ctx context.Context, email string) (*user.User, error) {
	key := user.NormalizeEmail(email)
	for _, item := range r.u.users.all() {
		if item.Email == key {
			return item, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r userRepo) ByUsername(ctx context.Context, username string) (*user.User, error) {
	key := user.NormalizeUsername(username)
	for _, item := range r.u.users.all() {
		if item.Username == key {
			return item, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r userRepo) List(ctx context.Context, params user.ListParams) (paging.Page[*user.User], error) {
	var matches []*user.User
	for _, item := range r.u.users.all() {
		if params.Matches(item) {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := strings.ToLower(matches[i].FullName()), strings.ToLower(matches[j].FullName())
		if a == b {
			return matches[i].ID < matches[j].ID
		}
		return a < b
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r userRepo) Save(ctx context.Context, item *user.User) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if strings.TrimSpace(string(item.ID)) == "" {
		return user.ErrIDRequired
	}
	for _, other := range r.u.users.all() {
		if other.ID == item.ID {
			continue
		}
		if other.Email == user.NormalizeEmail(item.Email) {
			return user.ErrEmailAlreadyUsed
		}
		if other.Username == user.NormalizeUsername(item.Username) {
			return user.ErrUsernameTaken
		}
	}
	r.u.users.put(item.ID, item)
	return nil
}

type notificationRepo struct{ u *Unit }

func (r notificationRepo) ByID(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	if n, ok := r.u.notifications.get(id); ok {
		return n, nil
	}
	return nil, notification.ErrNotFound
}

func (r notificationRepo) Save(ctx context.Context, n *notification.Notification) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.notifications.put(n.ID, n)
	return nil
}

func (r notificationRepo) Search(ctx context.Context, params notification.SearchParams) (paging.Page[*notification.Notification], error) {
	var matches []*notification.Notification
	for _, n := range r.u.notifications.all() {
		if params.Matches(n) {
			matches = append(matches, n)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return newerFirst(matches[i].CreatedAt, matches[j].CreatedAt, string(matches[i].ID), string(matches[j].ID))
	})
	return paging.Apply(matches, params.Paging), nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID user.ID, at time.Time) (int, error) {
	if err := r.u.writable(); err != nil {
		return 0, err
	}
	count := 0
	for _, n := range r.u.notifications.all() {
		if n.UserID != userID || n.Read {
			continue
		}
		n.MarkRead(at)
		r.u.notifications.put(n.ID, n)
		count++
	}
	return count, nil
}

func (r notificationRepo) UnreadCount(ctx context.Context, userID user.ID) (int, error) {
	count := 0
	for _, n := range r.u.notifications.all() {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func newerFirst(a, b time.Time, idA, idB string) bool {
	if a.Equal(b) {
		return idA > idB
	}
	return a.After(b)
}

var (
	_ property.Repository     = propertyRepo{}
	_ rent.Repository         = rentRepo{}
	_ viewing.Repository      = viewingRepo{}
	_ reviews.Repository      = reviewRepo{}
	_ reference.Repository    = referenceRepo{}
	_ user.Repository         = userRepo{}
	_ notification.Repository = notificationRepo{}
)
