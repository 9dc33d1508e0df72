package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reading-journal/internal/models"
)

type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(sessionsCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.ReadingSession) error {
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now().UTC()

	_, err := r.col.InsertOne(ctx, s)
	return handleDatabaseError(err)
}

// List returns the user's sessions, newest first, optionally for one book
func (r *SessionRepository) List(ctx context.Context, userID primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error) {
	filter := bson.M{"user_id": userID}
	if bookID != nil {
		filter["book_id"] = *bookID
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []models.ReadingSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes the session and returns it so the caller can reverse its counters
func (r *SessionRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.ReadingSession, error) {
	var s models.ReadingSession
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&s)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &s, nil
}

func (r *SessionRepository) DeleteByBook(ctx context.Context, userID, bookID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID, "book_id": bookID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *SessionRepository) CreateMany(ctx context.Context, sessions []models.ReadingSession) error {
	if len(sessions) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(sessions))
	for i := range sessions {
		sessions[i].ID = primitive.NewObjectID()
		sessions[i].CreatedAt = now
		docs[i] = sessions[i]
	}

	_, err := r.col.InsertMany(ctx, docs)
	return err
}
