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

// SocialRepository stores likes and comments. The unique (note_id, user_id)
// index on likes is what makes a second like fail with ErrDuplicate.
type SocialRepository struct {
	likes    *mongo.Collection
	comments *mongo.Collection
}

func NewSocialRepository(db *mongo.Database) *SocialRepository {
	return &SocialRepository{
		likes:    db.Collection(likesCollection),
		comments: db.Collection(commentsCollection),
	}
}

func (r *SocialRepository) InsertLike(ctx context.Context, like *models.Like) error {
	like.ID = primitive.NewObjectID()
	like.CreatedAt = time.Now().UTC()

	_, err := r.likes.InsertOne(ctx, like)
	return handleDatabaseError(err)
}

// DeleteLike returns the removed like, or ErrNotFound when there was none
func (r *SocialRepository) DeleteLike(ctx context.Context, noteID, userID primitive.ObjectID) (*models.Like, error) {
	var like models.Like
	err := r.likes.FindOneAndDelete(ctx, bson.M{"note_id": noteID, "user_id": userID}).Decode(&like)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &like, nil
}

func (r *SocialRepository) CountLikesReceived(ctx context.Context, authorID primitive.ObjectID) (int, error) {
	n, err := r.likes.CountDocuments(ctx, bson.M{"author_id": authorID})
	return int(n), err
}

func (r *SocialRepository) InsertComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()

	_, err := r.comments.InsertOne(ctx, comment)
	return handleDatabaseError(err)
}

func (r *SocialRepository) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &comment, nil
}

func (r *SocialRepository) DeleteComment(ctx context.Context, id, userID primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.comments.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&comment)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &comment, nil
}

func (r *SocialRepository) ListComments(ctx context.Context, noteID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := r.comments.Find(ctx,
		bson.M{"note_id": noteID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *SocialRepository) CountCommentsWritten(ctx context.Context, userID primitive.ObjectID) (int, error) {
	n, err := r.comments.CountDocuments(ctx, bson.M{"user_id": userID})
	return int(n), err
}

// DeleteByNotes removes every like and comment on the given notes
func (r *SocialRepository) DeleteByNotes(ctx context.Context, noteIDs []primitive.ObjectID) error {
	if len(noteIDs) == 0 {
		return nil
	}
	filter := bson.M{"note_id": bson.M{"$in": noteIDs}}

	if _, err := r.likes.DeleteMany(ctx, filter); err != nil {
		return err
	}
	_, err := r.comments.DeleteMany(ctx, filter)
	return err
}

// CommentersOf returns how many comments each user left on the given notes
func (r *SocialRepository) CommentersOf(ctx context.Context, noteIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := map[primitive.ObjectID]int{}
	if len(noteIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"note_id": bson.M{"$in": noteIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"_id"`
			Count  int                `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		out[row.UserID] = row.Count
	}

	return out, cursor.Err()
}
