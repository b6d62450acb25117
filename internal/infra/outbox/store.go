package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "erent/internal/app/outbox"
)

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// Store is the relay side of the outbox: it hands out due records and
// tracks their delivery.
type Store interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by"`
	ClaimedAt   time.Time         `bson:"claimed_at"`
	SentAt      time.Time         `bson:"sent_at"`
	LastError   string            `bson:"last_error"`
}

// MongoStore keeps the outbox in the app_outbox collection. Add runs inside
// the caller's session when the context carries one, so records commit with
// the aggregate that produced them.
type MongoStore struct {
	col        *mongo.Collection
	claimAfter time.Duration
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	col := db.Collection("app_outbox")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{col: col, claimAfter: time.Minute}
}

func (s *MongoStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := bson.M{
		"_id":             record.ID,
		"name":            record.Name,
		"payload":         record.Payload,
		"occurred_at":     record.OccurredAt,
		"aggregate":       record.Aggregate,
		"headers":         record.Headers,
		"state":           StateNew,
		"attempts":        0,
		"next_attempt_at": now,
		"created_at":      now,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *MongoStore) Flush(context.Context) error {
	return nil
}

// Claim takes the next due record. Records claimed by a worker that died
// become claimable again after claimAfter.
func (s *MongoStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": []string{StateNew, StateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": StateClaimed, "claimed_at": bson.M{"$lte": now.Add(-s.claimAfter)}},
	}}
	update := bson.M{"$set": bson.M{"state": StateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *MongoStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": StateSent, "sent_at": time.Now().UTC()}})
	return err
}

func (s *MongoStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           StateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

var (
	_ Store            = (*MongoStore)(nil)
	_ appoutbox.Outbox = (*MongoStore)(nil)
)
