// Package store is the Result Store Adapter: Submission documents in
// MongoDB, read and written whole, last-writer-wins, with the Job
// Processor as the sole writer. Grounded on the judge-daemon ancestor in
// this codebase's lineage that pairs a Mongo submissions collection with
// a Redis queue, matching this worker's MONGO_URI/DB_NAME configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"judgeworker/internal/model"
)

// ErrNotFound is returned by FindSubmission when no document matches id.
var ErrNotFound = errors.New("submission not found")

const submissionsCollection = "submissions"

// Store is the Mongo-backed Result Store Adapter.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies connectivity with a Ping.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the underlying Mongo client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection() *mongo.Collection {
	return s.db.Collection(submissionsCollection)
}

// FindSubmission loads a Submission by id. It returns ErrNotFound when
// no document matches, so callers can treat "missing" as a distinct,
// non-fatal case (spec stage 2: best-effort status update).
func (s *Store) FindSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find submission %s: %w", id, err)
	}
	return &sub, nil
}

// Save performs a whole-document replace (upsert), the adapter's only
// write path: last-writer-wins, with the Job Processor as the sole
// writer in this system.
func (s *Store) Save(ctx context.Context, sub *model.Submission) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection().ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub, opts)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", sub.ID, err)
	}
	return nil
}
