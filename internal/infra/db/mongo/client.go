package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Client owns the driver connection and the eRent database handle.
type Client struct {
	DB *mongo.Database
}

// New connects and checks the primary answers before returning. Transactions
// need a replica set, so a standalone server fails later on the first Begin.
func New(ctx context.Context, uri, database, appName string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetRetryWrites(true).
		SetServerSelectionTimeout(connectTimeout)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, readpref.Primary()); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", database, err)
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}
