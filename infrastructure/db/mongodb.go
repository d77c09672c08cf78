package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	closeTimeout   = 5 * time.Second
	pingTimeout    = 5 * time.Second
	maxPoolSize    = 100
)

// Store bundles the Mongo client with the database handle the repositories
// share. Connection parameters are explicit; defaults and environment
// lookups live with the caller's bootstrap, not here.
type Store struct {
	client *mongo.Client
	DB     *mongo.Database
}

// Connect dials, verifies the primary is reachable, and returns the handle
// for the named database.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri required")
	}
	if name == "" {
		return nil, errors.New("mongo database name required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}

	return &Store{
		client: client,
		DB:     client.Database(name),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}

func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.client.Ping(pingCtx, readpref.Primary())
}
