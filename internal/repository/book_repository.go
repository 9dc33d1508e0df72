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

type BookRepository struct {
	col *mongo.Collection
}

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{col: db.Collection(booksCollection)}
}

func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	book.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, book)
	return handleDatabaseError(err)
}

func (r *BookRepository) GetByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&book); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &book, nil
}

func (r *BookRepository) List(ctx context.Context, userID primitive.ObjectID, status models.BookStatus) ([]models.Book, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	books := []models.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, err
	}

	return books, nil
}

func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": book.ID, "user_id": book.UserID}, book)
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *BookRepository) SetCover(ctx context.Context, userID, id primitive.ObjectID, url string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{
		"cover_url":  url,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AdvanceProgress raises current_page to page and starts a shelved book.
// Both updates are conditional so concurrent sessions never move a book backwards.
func (r *BookRepository) AdvanceProgress(ctx context.Context, userID, id primitive.ObjectID, page int) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "user_id": userID}

	if _, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$max": bson.M{"current_page": page},
		"$set": bson.M{"updated_at": now},
	}); err != nil {
		return handleDatabaseError(err)
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID, "status": models.StatusWantToRead}, bson.M{
		"$set": bson.M{"status": models.StatusReading, "started_at": now},
	})
	return handleDatabaseError(err)
}

func (r *BookRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return handleDatabaseError(err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
