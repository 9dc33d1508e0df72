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

type NoteRepository struct {
	col *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{col: db.Collection(notesCollection)}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	note.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	note.LikesCount = 0
	note.CommentsCount = 0

	_, err := r.col.InsertOne(ctx, note)
	return handleDatabaseError(err)
}

func (r *NoteRepository) CreateMany(ctx context.Context, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(notes))
	for i := range notes {
		notes[i].ID = primitive.NewObjectID()
		notes[i].CreatedAt = now
		notes[i].UpdatedAt = now
		docs[i] = notes[i]
	}

	_, err := r.col.InsertMany(ctx, docs)
	return err
}

// GetByID does not check ownership; callers decide who may see the note
func (r *NoteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	var note models.Note
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&note); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &note, nil
}

func (r *NoteRepository) List(ctx context.Context, userID primitive.ObjectID, f models.NoteFilter) ([]models.Note, error) {
	filter := bson.M{"user_id": userID}
	if f.BookID != nil {
		filter["book_id"] = *f.BookID
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := []models.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *NoteRepository) ListPublic(ctx context.Context, limit int64) ([]models.Note, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, bson.M{"public": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := []models.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}

	return notes, nil
}

// ListIDsByBook is used to cascade social data when a book goes away
func (r *NoteRepository) ListIDsByBook(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.col.Find(ctx,
		bson.M{"user_id": userID, "book_id": bookID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}

	return ids, cursor.Err()
}

func (r *NoteRepository) UpdateFields(ctx context.Context, userID, id primitive.ObjectID, fields bson.M) (*models.Note, error) {
	fields["updated_at"] = time.Now().UTC()

	var note models.Note
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&note)
	if err != nil {
		return nil, handleDatabaseError(err)
	}

	return &note, nil
}

// IncrementCounters applies a single $inc to likes_count and comments_count
func (r *NoteRepository) IncrementCounters(ctx context.Context, id primitive.ObjectID, likes, comments int) error {
	inc := bson.M{}
	if likes != 0 {
		inc["likes_count"] = likes
	}
	if comments != 0 {
		inc["comments_count"] = comments
	}
	if len(inc) == 0 {
		return nil
	}

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$inc": inc})
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) DeleteByBook(ctx context.Context, userID, bookID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID, "book_id": bookID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
