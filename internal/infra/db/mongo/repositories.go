package mongo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

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

const (
	propertiesCollection    = "agg_properties"
	rentsCollection         = "agg_rents"
	calendarsCollection     = "agg_rent_calendars"
	viewingsCollection      = "agg_viewings"
	reviewsCollection       = "agg_reviews"
	usersCollection         = "agg_users"
	referenceCollection     = "ref_entries"
	notificationsCollection = "app_notifications"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func findOne[D any](ctx context.Context, col *mongo.Collection, filter bson.M, notFound error) (D, error) {
	var doc D
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, notFound
		}
		return doc, err
	}
	return doc, nil
}

func findAll[D any](ctx context.Context, col *mongo.Collection, filter bson.M, order bson.D) ([]D, error) {
	opts := options.Find()
	if order != nil {
		opts.SetSort(order)
	}
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Reported when another open transaction already wrote the same document.
const (
	writeConflictCode = 112
	transientTxnLabel = "TransientTransactionError"
)

// conflict reports whether err means another writer got to the document first.
func conflict(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTxnLabel)
}

// saveVersioned writes doc only if the stored version still equals version.
// A missing document is inserted; a moved version surfaces as a duplicate key,
// a write racing another transaction as a write conflict.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	res, err := col.UpdateOne(ctx, bson.M{"_id": id, "version": version}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if conflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	return nil
}

func upsert(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	_, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

// narrow adds field to filter when value is set.
func narrow(filter bson.M, field, value string) {
	if value != "" {
		filter[field] = value
	}
}

type PropertyRepository struct{ col *mongo.Collection }

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(propertiesCollection)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	doc, err := findOne[propertyDocument](ctx, r.col, bson.M{"_id": string(id)}, property.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Search(ctx context.Context, params property.SearchParams) (property.SearchResult, error) {
	filter := bson.M{}
	narrow(filter, "landlord_id", string(params.LandlordID))
	narrow(filter, "city_id", string(params.CityID))
	narrow(filter, "property_type_id", string(params.PropertyTypeID))
	if params.Active != nil {
		filter["active"] = *params.Active
	}
	docs, err := findAll[propertyDocument](ctx, r.col, filter, newestFirst)
	if err != nil {
		return property.SearchResult{}, err
	}
	var matches []*property.Property
	for _, d := range docs {
		if p := d.toAggregate(); params.Matches(p) {
			matches = append(matches, p)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	doc := newPropertyDocument(p)
	doc.Version = p.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, p.Version, doc); err != nil {
		return err
	}
	p.Version = doc.Version
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id property.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return property.ErrNotFound
	}
	return nil
}

type RentRepository struct {
	col       *mongo.Collection
	calendars *mongo.Collection
}

func NewRentRepository(db *mongo.Database) *RentRepository {
	return &RentRepository{col: db.Collection(rentsCollection), calendars: db.Collection(calendarsCollection)}
}

func (r *RentRepository) ByID(ctx context.Context, id rent.ID) (*rent.Rent, error) {
	doc, err := findOne[rentDocument](ctx, r.col, bson.M{"_id": string(id)}, rent.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RentRepository) Save(ctx context.Context, item *rent.Rent) error {
	doc := newRentDocument(item)
	doc.Version = item.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, item.Version, doc); err != nil {
		return err
	}
	item.Version = doc.Version
	return nil
}

func (r *RentRepository) Search(ctx context.Context, params rent.SearchParams) (paging.Page[*rent.Rent], error) {
	filter := bson.M{}
	narrow(filter, "property_id", string(params.PropertyID))
	narrow(filter, "tenant_id", string(params.TenantID))
	narrow(filter, "landlord_id", string(params.LandlordID))
	if params.Status != nil {
		filter["status"] = int(*params.Status)
	}
	docs, err := findAll[rentDocument](ctx, r.col, filter, newestFirst)
	if err != nil {
		return paging.Page[*rent.Rent]{}, err
	}
	var matches []*rent.Rent
	for _, d := range docs {
		if item := d.toAggregate(); params.Matches(item) {
			matches = append(matches, item)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *RentRepository) Blocking(ctx context.Context, propertyID property.ID, period daterange.DateRange) ([]*rent.Rent, error) {
	filter := bson.M{
		"property_id":  string(propertyID),
		"active":       true,
		"status":       bson.M{"$in": bson.A{int(rent.StatusAccepted), int(rent.StatusPaid)}},
		"period.start": bson.M{"$lte": period.End},
		"period.end":   bson.M{"$gte": period.Start},
	}
	docs, err := findAll[rentDocument](ctx, r.col, filter, nil)
	if err != nil {
		return nil, err
	}
	var out []*rent.Rent
	for _, d := range docs {
		if item := d.toAggregate(); item.Blocks() && item.Period.Overlaps(period) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *RentRepository) Calendar(ctx context.Context, propertyID property.ID) (*rent.Calendar, error) {
	doc, err := findOne[calendarDocument](ctx, r.calendars, bson.M{"_id": string(propertyID)}, errCalendarMissing)
	if errors.Is(err, errCalendarMissing) {
		return rent.NewCalendar(propertyID), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RentRepository) SaveCalendar(ctx context.Context, c *rent.Calendar) error {
	doc := calendarDocument{PropertyID: string(c.PropertyID), UpdatedAt: c.UpdatedAt, Version: c.Version + 1}
	if err := saveVersioned(ctx, r.calendars, doc.PropertyID, c.Version, doc); err != nil {
		return err
	}
	c.Version = doc.Version
	return nil
}

var errCalendarMissing = errors.New("mongo: rent calendar missing")

type ViewingRepository struct{ col *mongo.Collection }

func NewViewingRepository(db *mongo.Database) *ViewingRepository {
	return &ViewingRepository{col: db.Collection(viewingsCollection)}
}

func (r *ViewingRepository) ByID(ctx context.Context, id viewing.ID) (*viewing.Appointment, error) {
	doc, err := findOne[viewingDocument](ctx, r.col, bson.M{"_id": string(id)}, viewing.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ViewingRepository) Save(ctx context.Context, a *viewing.Appointment) error {
	doc := newViewingDocument(a)
	doc.Version = a.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, a.Version, doc); err != nil {
		return err
	}
	a.Version = doc.Version
	return nil
}

func (r *ViewingRepository) Search(ctx context.Context, params viewing.SearchParams) (paging.Page[*viewing.Appointment], error) {
	filter := bson.M{}
	narrow(filter, "property_id", string(params.PropertyID))
	narrow(filter, "tenant_id", string(params.TenantID))
	narrow(filter, "landlord_id", string(params.LandlordID))
	if params.Participant != "" {
		filter["$or"] = bson.A{bson.M{"tenant_id": string(params.Participant)}, bson.M{"landlord_id": string(params.Participant)}}
	}
	docs, err := findAll[viewingDocument](ctx, r.col, filter, bson.D{{Key: "start", Value: -1}, {Key: "_id", Value: -1}})
	if err != nil {
		return paging.Page[*viewing.Appointment]{}, err
	}
	var matches []*viewing.Appointment
	for _, d := range docs {
		if a := d.toAggregate(); params.Matches(a) {
			matches = append(matches, a)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *ViewingRepository) Holding(ctx context.Context, propertyID property.ID, start, end time.Time) ([]*viewing.Appointment, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"status":      bson.M{"$in": bson.A{int(viewing.StatusPending), int(viewing.StatusApproved)}},
		"start":       bson.M{"$lt": end},
		"end":         bson.M{"$gt": start},
	}
	docs, err := findAll[viewingDocument](ctx, r.col, filter, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*viewing.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ViewingRepository) DueForCompletion(ctx context.Context, now time.Time) ([]*viewing.Appointment, error) {
	filter := bson.M{"status": int(viewing.StatusApproved), "end": bson.M{"$lte": now}}
	docs, err := findAll[viewingDocument](ctx, r.col, filter, bson.D{{Key: "end", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]*viewing.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type ReviewRepository struct{ col *mongo.Collection }

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewsCollection)}
}

func (r *ReviewRepository) ByID(ctx context.Context, id reviews.ReviewID) (*reviews.Review, error) {
	doc, err := findOne[reviewDocument](ctx, r.col, bson.M{"_id": string(id)}, reviews.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ActiveByRent(ctx context.Context, rentID rent.ID, tenantID user.ID) ([]*reviews.Review, error) {
	docs, err := findAll[reviewDocument](ctx, r.col, bson.M{"rent_id": string(rentID), "tenant_id": string(tenantID), "active": true}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*reviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) Search(ctx context.Context, params reviews.SearchParams) (paging.Page[*reviews.Review], error) {
	filter := bson.M{}
	narrow(filter, "rent_id", string(params.RentID))
	narrow(filter, "property_id", string(params.PropertyID))
	narrow(filter, "tenant_id", string(params.TenantID))
	if params.Active != nil {
		filter["active"] = *params.Active
	}
	docs, err := findAll[reviewDocument](ctx, r.col, filter, newestFirst)
	if err != nil {
		return paging.Page[*reviews.Review]{}, err
	}
	var matches []*reviews.Review
	for _, d := range docs {
		if item := d.toAggregate(); params.Matches(item) {
			matches = append(matches, item)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *ReviewRepository) Save(ctx context.Context, item *reviews.Review) error {
	return upsert(ctx, r.col, string(item.ID), newReviewDocument(item))
}

type ReferenceRepository struct{ col *mongo.Collection }

func NewReferenceRepository(db *mongo.Database) *ReferenceRepository {
	return &ReferenceRepository{col: db.Collection(referenceCollection)}
}

func (r *ReferenceRepository) ByID(ctx context.Context, kind reference.Kind, id reference.ID) (*reference.Entry, error) {
	doc, err := findOne[referenceDocument](ctx, r.col, bson.M{"_id": referenceKey(kind, id)}, reference.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toEntry(), nil
}

func (r *ReferenceRepository) ByName(ctx context.Context, kind reference.Kind, name string) (*reference.Entry, error) {
	doc, err := findOne[referenceDocument](ctx, r.col, bson.M{"kind": string(kind), "name_key": nameKey(name)}, reference.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toEntry(), nil
}

func (r *ReferenceRepository) List(ctx context.Context, params reference.ListParams) (paging.Page[*reference.Entry], error) {
	filter := bson.M{"kind": string(params.Kind)}
	narrow(filter, "parent_id", string(params.ParentID))
	docs, err := findAll[referenceDocument](ctx, r.col, filter, bson.D{{Key: "name_key", Value: 1}, {Key: "ref_id", Value: 1}})
	if err != nil {
		return paging.Page[*reference.Entry]{}, err
	}
	var matches []*reference.Entry
	for _, d := range docs {
		if e := d.toEntry(); params.Matches(e) {
			matches = append(matches, e)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *ReferenceRepository) Save(ctx context.Context, e *reference.Entry) error {
	doc := newReferenceDocument(e)
	if err := upsert(ctx, r.col, doc.Key, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reference.ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *ReferenceRepository) Delete(ctx context.Context, kind reference.Kind, id reference.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": referenceKey(kind, id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return reference.ErrNotFound
	}
	return nil
}

type UserRepository struct{ col *mongo.Collection }

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.one(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.one(ctx, bson.M{"email": user.NormalizeEmail(email)})
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.one(ctx, bson.M{"username": user.NormalizeUsername(username)})
}

func (r *UserRepository) one(ctx context.Context, filter bson.M) (*user.User, error) {
	doc, err := findOne[userDocument](ctx, r.col, filter, user.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) List(ctx context.Context, params user.ListParams) (paging.Page[*user.User], error) {
	filter := bson.M{}
	if params.Active != nil {
		filter["active"] = *params.Active
	}
	docs, err := findAll[userDocument](ctx, r.col, filter, nil)
	if err != nil {
		return paging.Page[*user.User]{}, err
	}
	var matches []*user.User
	for _, d := range docs {
		if u := d.toAggregate(); params.Matches(u) {
			matches = append(matches, u)
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

// Save relies on the unique email and username indexes.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	err := upsert(ctx, r.col, string(u.ID), newUserDocument(u))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "email") {
			return user.ErrEmailAlreadyUsed
		}
		return user.ErrUsernameTaken
	}
	return err
}

type NotificationRepository struct{ col *mongo.Collection }

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(notificationsCollection)}
}

func (r *NotificationRepository) ByID(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	doc, err := findOne[notificationDocument](ctx, r.col, bson.M{"_id": string(id)}, notification.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return upsert(ctx, r.col, string(n.ID), newNotificationDocument(n))
}

func (r *NotificationRepository) Search(ctx context.Context, params notification.SearchParams) (paging.Page[*notification.Notification], error) {
	filter := bson.M{}
	narrow(filter, "user_id", string(params.UserID))
	if params.Read != nil {
		filter["read"] = *params.Read
	}
	docs, err := findAll[notificationDocument](ctx, r.col, filter, newestFirst)
	if err != nil {
		return paging.Page[*notification.Notification]{}, err
	}
	var matches []*notification.Notification
	for _, d := range docs {
		if n := d.toAggregate(); params.Matches(n) {
			matches = append(matches, n)
		}
	}
	return paging.Apply(matches, params.Paging), nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID user.ID, at time.Time) (int, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": string(userID), "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at.UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID user.ID) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": string(userID), "read": false})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var (
	_ property.Repository     = (*PropertyRepository)(nil)
	_ rent.Repository         = (*RentRepository)(nil)
	_ viewing.Repository      = (*ViewingRepository)(nil)
	_ reviews.Repository      = (*ReviewRepository)(nil)
	_ reference.Repository    = (*ReferenceRepository)(nil)
	_ user.Repository         = (*UserRepository)(nil)
	_ notification.Repository = (*NotificationRepository)(nil)
)
