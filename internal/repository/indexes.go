package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reading-journal/internal/models"
)

const (
	usersCollection      = "users"
	booksCollection      = "books"
	sessionsCollection   = "reading_sessions"
	notesCollection      = "notes"
	likesCollection      = "likes"
	commentsCollection   = "comments"
	statisticsCollection = "user_statistics"
)

// EnsureIndexes creates the indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		booksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}}},
			{Keys: bson.D{{Key: "book_id", Value: 1}}},
		},
		notesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "book_id", Value: 1}}},
			{Keys: bson.D{{Key: "public", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		likesCollection: {
			{Keys: bson.D{{Key: "note_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "note_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		statisticsCollection: {
			{Keys: bson.D{{Key: "experience", Value: -1}}},
		},
	}

	for collection, idx := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}

	return nil
}

func handleDatabaseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicate
	}
	return err
}
