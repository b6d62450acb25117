package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "app_inbox"

// Store deduplicates consumed events per consumer name.
type Store struct {
	col      *mongo.Collection
	consumer string
}

func NewStore(ctx context.Context, db *mongo.Database, consumer string) (*Store, error) {
	col := db.Collection(collection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, consumer: consumer}, nil
}

// Seen records eventID and reports whether it had been recorded before.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	doc := bson.M{"event_id": eventID, "consumer": s.consumer, "received_at": time.Now().UTC()}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}

// Forget drops eventID so a failed delivery can be processed again.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"event_id": eventID, "consumer": s.consumer})
	return err
}
