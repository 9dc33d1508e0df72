package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
	"reading-journal/internal/utils"
)

type SessionService struct {
	sessions SessionRepository
	books    BookRepository
	stats    StatisticsUpdater
	metrics  *utils.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

func NewSessionService(sessions SessionRepository, books BookRepository, stats StatisticsUpdater, metrics *utils.Metrics, log *logrus.Entry) *SessionService {
	return &SessionService{
		sessions: sessions,
		books:    books,
		stats:    stats,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// LogSession records a reading sitting, advances the book and feeds the statistics
func (s *SessionService) LogSession(ctx context.Context, userID primitive.ObjectID, in models.SessionInput) (*models.ReadingSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	bookID, err := ParseID(in.BookID)
	if err != nil {
		return nil, err
	}
	book, err := s.books.GetByID(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if book.TotalPages > 0 && in.EndPage > book.TotalPages {
		return nil, fmt.Errorf("%w: end_page must not exceed total_pages", models.ErrValidation)
	}

	now := s.now().UTC()
	startedAt := now.Add(-time.Duration(in.DurationSeconds) * time.Second)
	if in.StartedAt != nil {
		startedAt = in.StartedAt.UTC()
	}
	if startedAt.After(now) {
		return nil, fmt.Errorf("%w: started_at must not be in the future", models.ErrValidation)
	}

	session := &models.ReadingSession{
		UserID:          userID,
		BookID:          bookID,
		StartedAt:       startedAt,
		DurationSeconds: in.DurationSeconds,
		StartPage:       in.StartPage,
		EndPage:         in.EndPage,
		Note:            strings.TrimSpace(in.Note),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.books.AdvanceProgress(ctx, userID, bookID, in.EndPage); err != nil {
		s.log.WithError(err).WithField("book_id", bookID.Hex()).Error("failed to advance book progress")
	}

	s.metrics.SessionsLogged.Inc()
	s.metrics.ReadingSeconds.Add(float64(session.DurationSeconds))

	if err := s.stats.Apply(ctx, userID, models.SessionDelta(*session, 1), &session.StartedAt); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID.Hex()).Error("failed to apply session to statistics")
	}

	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context, userID primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error) {
	return s.sessions.List(ctx, userID, bookID)
}

// DeleteSession removes the session and reverses its counters
func (s *SessionService) DeleteSession(ctx context.Context, userID, id primitive.ObjectID) error {
	session, err := s.sessions.Delete(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.stats.Apply(ctx, userID, models.SessionDelta(*session, -1), nil)
}
