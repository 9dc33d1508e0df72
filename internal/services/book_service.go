package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

const maxCoverSize = 5 << 20

var allowedCoverTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// CoverStorage is satisfied by *minio.Client
type CoverStorage interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type BookService struct {
	books     BookRepository
	sessions  SessionRepository
	notes     NoteRepository
	social    SocialRepository
	stats     StatisticsUpdater
	storage   CoverStorage
	bucket    string
	publicURL string
	log       *logrus.Entry
	now       func() time.Time
}

func NewBookService(
	books BookRepository,
	sessions SessionRepository,
	notes NoteRepository,
	social SocialRepository,
	stats StatisticsUpdater,
	storage CoverStorage,
	bucket, publicURL string,
	log *logrus.Entry,
) *BookService {
	return &BookService{
		books:     books,
		sessions:  sessions,
		notes:     notes,
		social:    social,
		stats:     stats,
		storage:   storage,
		bucket:    bucket,
		publicURL: publicURL,
		log:       log,
		now:       time.Now,
	}
}

func (s *BookService) Create(ctx context.Context, userID primitive.ObjectID, in models.BookInput) (*models.Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	book := &models.Book{
		UserID:     userID,
		Title:      strings.TrimSpace(in.Title),
		Author:     strings.TrimSpace(in.Author),
		ISBN:       in.ISBN,
		Genre:      strings.TrimSpace(in.Genre),
		TotalPages: in.TotalPages,
		Rating:     in.Rating,
	}
	status := in.Status
	if status == "" {
		status = models.StatusWantToRead
	}
	book.SetStatus(status, s.now().UTC())

	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	s.rebuildStats(ctx, userID)

	return book, nil
}

func (s *BookService) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Book, error) {
	return s.books.GetByID(ctx, userID, id)
}

func (s *BookService) List(ctx context.Context, userID primitive.ObjectID, status models.BookStatus) ([]models.Book, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.books.List(ctx, userID, status)
}

func (s *BookService) Update(ctx context.Context, userID, id primitive.ObjectID, in models.BookUpdate) (*models.Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	aggregated := false
	if in.Title != nil {
		book.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		book.Author = strings.TrimSpace(*in.Author)
		aggregated = true
	}
	if in.ISBN != nil {
		book.ISBN = *in.ISBN
	}
	if in.Genre != nil {
		book.Genre = strings.TrimSpace(*in.Genre)
		aggregated = true
	}
	if in.TotalPages != nil {
		book.TotalPages = *in.TotalPages
	}
	if in.CurrentPage != nil {
		book.CurrentPage = *in.CurrentPage
	}
	if in.Rating != nil {
		book.Rating = *in.Rating
	}
	if in.Status != nil && *in.Status != book.Status {
		book.SetStatus(*in.Status, s.now().UTC())
		aggregated = true
	}

	if book.TotalPages > 0 && book.CurrentPage > book.TotalPages {
		return nil, fmt.Errorf("%w: current_page must not exceed total_pages", models.ErrValidation)
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	if aggregated {
		s.rebuildStats(ctx, userID)
	}

	return book, nil
}

// Delete removes the book together with its sessions, notes and their social activity
func (s *BookService) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	if _, err := s.books.GetByID(ctx, userID, id); err != nil {
		return err
	}

	noteIDs, err := s.notes.ListIDsByBook(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := purgeSocial(ctx, s.social, s.stats, noteIDs); err != nil {
		return err
	}
	if _, err := s.notes.DeleteByBook(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByBook(ctx, userID, id); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.rebuildStats(ctx, userID)
	return nil
}

// UploadCover stores the image under covers/<user>/<uuid><ext> and saves its public URL
func (s *BookService) UploadCover(ctx context.Context, userID, id primitive.ObjectID, filename string, size int64, reader io.Reader) (*models.Book, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedCoverTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: cover must be a jpg, png or webp image", models.ErrValidation)
	}
	if size <= 0 || size > maxCoverSize {
		return nil, fmt.Errorf("%w: cover must be at most 5 MB", models.ErrValidation)
	}

	if _, err := s.books.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("covers/%s/%s%s", userID.Hex(), uuid.NewString(), ext)
	if _, err := s.storage.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.publicURL, "/"), s.bucket, objectKey)
	if err := s.books.SetCover(ctx, userID, id, url); err != nil {
		return nil, err
	}

	return s.books.GetByID(ctx, userID, id)
}

func (s *BookService) rebuildStats(ctx context.Context, userID primitive.ObjectID) {
	if _, err := s.stats.Rebuild(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID.Hex()).Error("failed to rebuild statistics")
	}
}
