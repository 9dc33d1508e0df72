package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

// ImportService loads a JSON journal export into a user's shelf
type ImportService struct {
	users    UserRepository
	books    BookRepository
	sessions SessionRepository
	notes    NoteRepository
	stats    StatisticsUpdater
	log      *logrus.Entry
	now      func() time.Time
}

func NewImportService(users UserRepository, books BookRepository, sessions SessionRepository, notes NoteRepository, stats StatisticsUpdater, log *logrus.Entry) *ImportService {
	return &ImportService{
		users:    users,
		books:    books,
		sessions: sessions,
		notes:    notes,
		stats:    stats,
		log:      log,
		now:      time.Now,
	}
}

// DecodeExport parses and validates an export without touching the database
func DecodeExport(r io.Reader) (*models.JournalExport, error) {
	var export models.JournalExport
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&export); err != nil {
		return nil, fmt.Errorf("%w: malformed export: %s", models.ErrValidation, err)
	}
	if err := export.Validate(); err != nil {
		return nil, err
	}
	return &export, nil
}

// Import validates the whole export first; nothing is written when any entry is invalid
func (s *ImportService) Import(ctx context.Context, userID primitive.ObjectID, r io.Reader, dryRun bool) (*models.ImportReport, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID.Hex(), err)
	}

	export, err := DecodeExport(r)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{DryRun: dryRun}
	for _, eb := range export.Books {
		report.Books++
		report.Sessions += len(eb.Sessions)
		report.Notes += len(eb.Notes)
	}
	if dryRun {
		return report, nil
	}

	for i, eb := range export.Books {
		if err := s.importBook(ctx, userID, eb); err != nil {
			return nil, fmt.Errorf("import book %d (%q): %w", i, eb.Title, err)
		}
	}

	if _, err := s.stats.Rebuild(ctx, userID); err != nil {
		return nil, fmt.Errorf("rebuild statistics: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID.Hex(),
		"books":    report.Books,
		"sessions": report.Sessions,
		"notes":    report.Notes,
	}).Info("journal imported")

	return report, nil
}

func (s *ImportService) importBook(ctx context.Context, userID primitive.ObjectID, eb models.ExportedBook) error {
	book := &models.Book{
		UserID:      userID,
		Title:       strings.TrimSpace(eb.Title),
		Author:      strings.TrimSpace(eb.Author),
		ISBN:        eb.ISBN,
		Genre:       strings.TrimSpace(eb.Genre),
		TotalPages:  eb.TotalPages,
		CurrentPage: eb.CurrentPage,
		Rating:      eb.Rating,
	}
	status := eb.Status
	if status == "" {
		status = models.StatusWantToRead
	}
	book.SetStatus(status, s.now().UTC())
	if eb.StartedAt != nil {
		book.StartedAt = eb.StartedAt
	}
	if eb.FinishedAt != nil && status == models.StatusFinished {
		book.FinishedAt = eb.FinishedAt
	}

	if err := s.books.Create(ctx, book); err != nil {
		return err
	}

	sessions := make([]models.ReadingSession, 0, len(eb.Sessions))
	for _, es := range eb.Sessions {
		sessions = append(sessions, models.ReadingSession{
			UserID:          userID,
			BookID:          book.ID,
			StartedAt:       es.StartedAt.UTC(),
			DurationSeconds: es.DurationSeconds,
			StartPage:       es.StartPage,
			EndPage:         es.EndPage,
			Note:            strings.TrimSpace(es.Note),
		})
	}
	if err := s.sessions.CreateMany(ctx, sessions); err != nil {
		return err
	}

	notes := make([]models.Note, 0, len(eb.Notes))
	for _, en := range eb.Notes {
		notes = append(notes, models.Note{
			UserID:  userID,
			BookID:  book.ID,
			Kind:    en.Kind,
			Content: strings.TrimSpace(en.Content),
			Page:    en.Page,
			Public:  en.Public,
		})
	}

	return s.notes.CreateMany(ctx, notes)
}
