package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on for lookups and
// uniqueness. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	plan := map[string][]mongo.IndexModel{
		propertiesCollection: {
			{Keys: bson.D{{Key: "landlord_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "city_id", Value: 1}, {Key: "active", Value: 1}}},
		},
		rentsCollection: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "period.start", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "landlord_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		viewingsCollection: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "start", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end", Value: 1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "rent_id", Value: 1}, {Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		referenceCollection: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "name_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, models := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}
