package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

// EventsChannel is the Redis pub/sub channel for journal events
const EventsChannel = "journal_events"

// Cache is the subset of utils.RedisClient the services use
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string, resetRequired bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Book, error)
	List(ctx context.Context, userID primitive.ObjectID, status models.BookStatus) ([]models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	SetCover(ctx context.Context, userID, id primitive.ObjectID, url string) error
	AdvanceProgress(ctx context.Context, userID, id primitive.ObjectID, page int) error
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
}

type SessionRepository interface {
	Create(ctx context.Context, s *models.ReadingSession) error
	CreateMany(ctx context.Context, sessions []models.ReadingSession) error
	List(ctx context.Context, userID primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.ReadingSession, error)
	DeleteByBook(ctx context.Context, userID, bookID primitive.ObjectID) (int64, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	CreateMany(ctx context.Context, notes []models.Note) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Note, error)
	List(ctx context.Context, userID primitive.ObjectID, f models.NoteFilter) ([]models.Note, error)
	ListPublic(ctx context.Context, limit int64) ([]models.Note, error)
	ListIDsByBook(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error)
	UpdateFields(ctx context.Context, userID, id primitive.ObjectID, fields bson.M) (*models.Note, error)
	IncrementCounters(ctx context.Context, id primitive.ObjectID, likes, comments int) error
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteByBook(ctx context.Context, userID, bookID primitive.ObjectID) (int64, error)
}

type SocialRepository interface {
	InsertLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, noteID, userID primitive.ObjectID) (*models.Like, error)
	CountLikesReceived(ctx context.Context, authorID primitive.ObjectID) (int, error)
	InsertComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, userID primitive.ObjectID) (*models.Comment, error)
	ListComments(ctx context.Context, noteID primitive.ObjectID) ([]models.Comment, error)
	CountCommentsWritten(ctx context.Context, userID primitive.ObjectID) (int, error)
	CommentersOf(ctx context.Context, noteIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	DeleteByNotes(ctx context.Context, noteIDs []primitive.ObjectID) error
}

type StatisticsRepository interface {
	Ensure(ctx context.Context, userID primitive.ObjectID) error
	Get(ctx context.Context, userID primitive.ObjectID) (*models.UserStatistics, error)
	Increment(ctx context.Context, userID primitive.ObjectID, delta models.CounterDelta, lastSessionAt *time.Time) (*models.UserStatistics, error)
	SetLevel(ctx context.Context, userID primitive.ObjectID, level, exp int) (int, error)
	ReplaceAggregate(ctx context.Context, userID primitive.ObjectID, agg models.Aggregate) error
	Top(ctx context.Context, limit int64) ([]models.UserStatistics, error)
}

// ParseID converts a hex id from a request into an ObjectID
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return oid, nil
}

// StatisticsUpdater is how the journal services feed the statistics document
type StatisticsUpdater interface {
	Apply(ctx context.Context, userID primitive.ObjectID, delta models.CounterDelta, lastSessionAt *time.Time) error
	Rebuild(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error)
}
