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

// StatisticsRepository owns the user_statistics collection. Counter changes
// are single-document $inc updates, never read-modify-write.
type StatisticsRepository struct {
	col *mongo.Collection
}

func NewStatisticsRepository(db *mongo.Database) *StatisticsRepository {
	return &StatisticsRepository{col: db.Collection(statisticsCollection)}
}

// Ensure creates an empty statistics document for the user if none exists
func (r *StatisticsRepository) Ensure(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, userID, bson.M{
		"$setOnInsert": bson.M{
			"total_reading_time":     0,
			"total_likes_received":   0,
			"total_comments_written": 0,
			"sessions_count":         0,
			"total_pages_read":       0,
			"books_finished":         0,
			"level":                  1,
			"experience":             0,
			"updated_at":             time.Now().UTC(),
		},
	}, options.Update().SetUpsert(true))
	return err
}

func (r *StatisticsRepository) Get(ctx context.Context, userID primitive.ObjectID) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&stats); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &stats, nil
}

// Increment applies delta atomically and returns the document after the update
func (r *StatisticsRepository) Increment(ctx context.Context, userID primitive.ObjectID, delta models.CounterDelta, lastSessionAt *time.Time) (*models.UserStatistics, error) {
	inc := bson.M{}
	if delta.ReadingTime != 0 {
		inc["total_reading_time"] = delta.ReadingTime
	}
	if delta.LikesReceived != 0 {
		inc["total_likes_received"] = delta.LikesReceived
	}
	if delta.CommentsWritten != 0 {
		inc["total_comments_written"] = delta.CommentsWritten
	}
	if delta.Sessions != 0 {
		inc["sessions_count"] = delta.Sessions
	}
	if delta.PagesRead != 0 {
		inc["total_pages_read"] = delta.PagesRead
	}
	if delta.Weekday != "" && delta.Sessions != 0 {
		inc["sessions_by_weekday."+delta.Weekday] = delta.Sessions
	}
	if delta.Month != "" && delta.ReadingTime != 0 {
		inc["reading_time_by_month."+delta.Month] = delta.ReadingTime
	}

	update := bson.M{
		"$set":         bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"level": 1, "experience": 0},
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if lastSessionAt != nil {
		update["$max"] = bson.M{"last_session_at": *lastSessionAt}
	}

	var stats models.UserStatistics
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stats)
	if err != nil {
		return nil, handleDatabaseError(err)
	}

	return &stats, nil
}

// SetLevel stores the denormalized level and returns the level it replaced
func (r *StatisticsRepository) SetLevel(ctx context.Context, userID primitive.ObjectID, level, exp int) (int, error) {
	var before models.UserStatistics
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"level":      level,
			"experience": exp,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return 0, handleDatabaseError(err)
	}

	return before.Level, nil
}

// ReplaceAggregate overwrites every derived field with a freshly computed aggregate
func (r *StatisticsRepository) ReplaceAggregate(ctx context.Context, userID primitive.ObjectID, agg models.Aggregate) error {
	set := bson.M{
		"total_reading_time":     agg.TotalReadingTime,
		"total_likes_received":   agg.TotalLikesReceived,
		"total_comments_written": agg.TotalCommentsWritten,
		"sessions_count":         agg.SessionsCount,
		"total_pages_read":       agg.TotalPagesRead,
		"books_finished":         agg.BooksFinished,
		"authors":                agg.Authors,
		"genres":                 agg.Genres,
		"sessions_by_weekday":    agg.SessionsByWeekday,
		"reading_time_by_month":  agg.ReadingTimeByMonth,
		"updated_at":             time.Now().UTC(),
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"level": 1, "experience": 0},
	}
	if agg.LastSessionAt != nil {
		set["last_session_at"] = *agg.LastSessionAt
	} else {
		update["$unset"] = bson.M{"last_session_at": ""}
	}

	_, err := r.col.UpdateByID(ctx, userID, update, options.Update().SetUpsert(true))
	return err
}

// Top returns the statistics documents with the most experience
func (r *StatisticsRepository) Top(ctx context.Context, limit int64) ([]models.UserStatistics, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "experience", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := []models.UserStatistics{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *StatisticsRepository) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
