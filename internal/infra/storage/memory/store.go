package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "erent/internal/app/outbox"
	"erent/internal/app/uow"
	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

var (
	ErrReadOnly = errors.New("memory: unit of work is read-only")
	ErrClosed   = errors.New("memory: unit of work already finished")
)

type referenceKey struct {
	kind reference.Kind
	id   reference.ID
}

// Store keeps every aggregate in process memory. Writers are serialised: a
// writable unit holds the store lock until it commits or rolls back, so
// reads and writes inside one unit observe a stable snapshot.
type Store struct {
	mu sync.RWMutex

	properties    *table[property.ID, *property.Property]
	rents         *table[rent.ID, *rent.Rent]
	calendars     *table[property.ID, *rent.Calendar]
	viewings      *table[viewing.ID, *viewing.Appointment]
	reviews       *table[reviews.ReviewID, *reviews.Review]
	reference     *table[referenceKey, *reference.Entry]
	users         *table[user.ID, *user.User]
	notifications *table[notification.ID, *notification.Notification]

	outbox *Outbox
}

func NewStore() *Store {
	return &Store{
		properties:    newTable[property.ID](cloneProperty),
		rents:         newTable[rent.ID](cloneRent),
		calendars:     newTable[property.ID](cloneCalendar),
		viewings:      newTable[viewing.ID](cloneAppointment),
		reviews:       newTable[reviews.ReviewID](cloneReview),
		reference:     newTable[referenceKey](cloneEntry),
		users:         newTable[user.ID](cloneUser),
		notifications: newTable[notification.ID](cloneNotification),
		outbox:        NewOutbox(),
	}
}

// Outbox returns the event queue that units of this store publish into on commit.
func (s *Store) Outbox() *Outbox {
	return s.outbox
}

func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		s.mu.RLock()
	} else {
		s.mu.Lock()
	}
	return &Unit{
		store:         s,
		readOnly:      opts.ReadOnly,
		properties:    s.properties.begin(),
		rents:         s.rents.begin(),
		calendars:     s.calendars.begin(),
		viewings:      s.viewings.begin(),
		reviews:       s.reviews.begin(),
		reference:     s.reference.begin(),
		users:         s.users.begin(),
		notifications: s.notifications.begin(),
	}, nil
}

// Unit is a uow.UnitOfWork over Store. Writes are staged and applied on Commit.
type Unit struct {
	store    *Store
	readOnly bool
	done     bool

	properties    *tx[property.ID, *property.Property]
	rents         *tx[rent.ID, *rent.Rent]
	calendars     *tx[property.ID, *rent.Calendar]
	viewings      *tx[viewing.ID, *viewing.Appointment]
	reviews       *tx[reviews.ReviewID, *reviews.Review]
	reference     *tx[referenceKey, *reference.Entry]
	users         *tx[user.ID, *user.User]
	notifications *tx[notification.ID, *notification.Notification]
	events        []appoutbox.EventRecord
}

func (u *Unit) Properties() property.Repository        { return propertyRepo{u} }
func (u *Unit) Rents() rent.Repository                 { return rentRepo{u} }
func (u *Unit) Viewings() viewing.Repository           { return viewingRepo{u} }
func (u *Unit) Reviews() reviews.Repository            { return reviewRepo{u} }
func (u *Unit) Reference() reference.Repository        { return referenceRepo{u} }
func (u *Unit) Users() user.Repository                 { return userRepo{u} }
func (u *Unit) Notifications() notification.Repository { return notificationRepo{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrClosed
	}
	if !u.readOnly {
		u.properties.commit()
		u.rents.commit()
		u.calendars.commit()
		u.viewings.commit()
		u.reviews.commit()
		u.reference.commit()
		u.users.commit()
		u.notifications.commit()
		u.store.outbox.enqueue(u.events)
	}
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.release()
	return nil
}

func (u *Unit) release() {
	u.done = true
	u.events = nil
	if u.readOnly {
		u.store.mu.RUnlock()
	} else {
		u.store.mu.Unlock()
	}
}

func (u *Unit) writable() error {
	if u.done {
		return ErrClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

// table is the committed state of one aggregate collection.
type table[K comparable, V any] struct {
	rows  map[K]V
	clone func(V) V
}

func newTable[K comparable, V any](clone func(V) V) *table[K, V] {
	return &table[K, V]{rows: make(map[K]V), clone: clone}
}

func (t *table[K, V]) begin() *tx[K, V] {
	return &tx[K, V]{base: t, staged: make(map[K]V), deleted: make(map[K]struct{})}
}

// tx overlays staged writes on a table.
type tx[K comparable, V any] struct {
	base    *table[K, V]
	staged  map[K]V
	deleted map[K]struct{}
}

func (t *tx[K, V]) get(key K) (V, bool) {
	var zero V
	if _, gone := t.deleted[key]; gone {
		return zero, false
	}
	if v, ok := t.staged[key]; ok {
		return t.base.clone(v), true
	}
	if v, ok := t.base.rows[key]; ok {
		return t.base.clone(v), true
	}
	return zero, false
}

func (t *tx[K, V]) put(key K, value V) {
	delete(t.deleted, key)
	t.staged[key] = t.base.clone(value)
}

func (t *tx[K, V]) remove(key K) {
	delete(t.staged, key)
	t.deleted[key] = struct{}{}
}

// all returns clones of every visible row in no particular order.
func (t *tx[K, V]) all() []V {
	out := make([]V, 0, len(t.base.rows)+len(t.staged))
	for key, v := range t.base.rows {
		if _, gone := t.deleted[key]; gone {
			continue
		}
		if _, overridden := t.staged[key]; overridden {
			continue
		}
		out = append(out, t.base.clone(v))
	}
	for _, v := range t.staged {
		out = append(out, t.base.clone(v))
	}
	return out
}

func (t *tx[K, V]) commit() {
	for key := range t.deleted {
		delete(t.base.rows, key)
	}
	for key, v := range t.staged {
		t.base.rows[key] = v
	}
}

// fromContext finds the memory unit a repository call runs in.
func fromContext(ctx context.Context) (*Unit, bool) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, false
	}
	u, ok := unit.(*Unit)
	return u, ok
}

var _ uow.UoWFactory = (*Store)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
