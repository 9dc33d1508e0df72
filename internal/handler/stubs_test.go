package handler

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

type stubAuth struct {
	err          error
	loggedOutID  string
	loggedOutExp time.Time
	lastRegister models.RegisterRequest
}

func (s *stubAuth) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	s.lastRegister = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.AuthResponse{Token: "token", User: &models.User{Email: req.Email}}, nil
}

func (s *stubAuth) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AuthResponse{Token: "token", User: &models.User{Email: req.Email}}, nil
}

func (s *stubAuth) Logout(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.loggedOutID = tokenID
	s.loggedOutExp = expiresAt
	return s.err
}

func (s *stubAuth) GetProfile(_ context.Context, userID primitive.ObjectID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: userID, DisplayName: "Ada"}, nil
}

func (s *stubAuth) UpdateProfile(_ context.Context, userID primitive.ObjectID, req models.UpdateProfileRequest) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: userID, DisplayName: *req.DisplayName}, nil
}

func (s *stubAuth) ChangePassword(context.Context, primitive.ObjectID, models.ChangePasswordRequest) error {
	return s.err
}

func (s *stubAuth) ResetPassword(context.Context, models.ResetPasswordRequest) error {
	return s.err
}

func (s *stubAuth) SetInitialPassword(context.Context, primitive.ObjectID, models.SetInitialPasswordRequest) (string, error) {
	return "fresh-token", s.err
}

type stubBooks struct {
	err        error
	lastStatus models.BookStatus
	cover      []byte
	coverName  string
}

func (s *stubBooks) Create(_ context.Context, userID primitive.ObjectID, in models.BookInput) (*models.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Book{ID: primitive.NewObjectID(), UserID: userID, Title: in.Title, Author: in.Author}, nil
}

func (s *stubBooks) Get(_ context.Context, userID, id primitive.ObjectID) (*models.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Book{ID: id, UserID: userID}, nil
}

func (s *stubBooks) List(_ context.Context, _ primitive.ObjectID, status models.BookStatus) ([]models.Book, error) {
	s.lastStatus = status
	return []models.Book{}, s.err
}

func (s *stubBooks) Update(_ context.Context, userID, id primitive.ObjectID, _ models.BookUpdate) (*models.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Book{ID: id, UserID: userID}, nil
}

func (s *stubBooks) Delete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.err
}

func (s *stubBooks) UploadCover(_ context.Context, userID, id primitive.ObjectID, filename string, _ int64, reader io.Reader) (*models.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.cover = data
	s.coverName = filename
	return &models.Book{ID: id, UserID: userID, CoverURL: "http://cdn.local/" + filename}, nil
}

type stubSessions struct {
	err        error
	lastBookID *primitive.ObjectID
}

func (s *stubSessions) LogSession(_ context.Context, userID primitive.ObjectID, in models.SessionInput) (*models.ReadingSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ReadingSession{ID: primitive.NewObjectID(), UserID: userID, DurationSeconds: in.DurationSeconds}, nil
}

func (s *stubSessions) ListSessions(_ context.Context, _ primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error) {
	s.lastBookID = bookID
	return []models.ReadingSession{}, s.err
}

func (s *stubSessions) DeleteSession(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.err
}

type stubNotes struct {
	err        error
	lastFilter models.NoteFilter
	lastLimit  int
}

func (s *stubNotes) Create(_ context.Context, userID primitive.ObjectID, in models.NoteInput) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: primitive.NewObjectID(), UserID: userID, Kind: in.Kind, Content: in.Content}, nil
}

func (s *stubNotes) Get(_ context.Context, _, id primitive.ObjectID) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: id}, nil
}

func (s *stubNotes) List(_ context.Context, _ primitive.ObjectID, f models.NoteFilter) ([]models.Note, error) {
	s.lastFilter = f
	return []models.Note{}, s.err
}

func (s *stubNotes) Update(_ context.Context, _, id primitive.ObjectID, _ models.NoteUpdate) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: id}, nil
}

func (s *stubNotes) Delete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.err
}

func (s *stubNotes) ListPublicFeed(_ context.Context, limit int) ([]models.Note, error) {
	s.lastLimit = limit
	return []models.Note{}, s.err
}

type stubSocial struct {
	err   error
	likes int
}

func (s *stubSocial) Like(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	if s.err != nil {
		return s.err
	}
	s.likes++
	return nil
}

func (s *stubSocial) Unlike(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	if s.err != nil {
		return s.err
	}
	s.likes--
	return nil
}

func (s *stubSocial) Comment(_ context.Context, userID, noteID primitive.ObjectID, in models.CommentInput) (*models.Comment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Comment{ID: primitive.NewObjectID(), NoteID: noteID, UserID: userID, Content: in.Content}, nil
}

func (s *stubSocial) DeleteComment(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.err
}

func (s *stubSocial) ListComments(context.Context, primitive.ObjectID, primitive.ObjectID) ([]models.Comment, error) {
	return []models.Comment{}, s.err
}

type stubStats struct {
	err       error
	rebuilt   int
	lastLimit int
}

func (s *stubStats) GetStatistics(_ context.Context, userID primitive.ObjectID) (*models.StatisticsView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.StatisticsView{UserStatistics: models.UserStatistics{UserID: userID, Level: 1}}, nil
}

func (s *stubStats) Rebuild(ctx context.Context, userID primitive.ObjectID) (*models.StatisticsView, error) {
	s.rebuilt++
	return s.GetStatistics(ctx, userID)
}

func (s *stubStats) RebuildAll(context.Context) (int, error) {
	return 3, s.err
}

func (s *stubStats) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.lastLimit = limit
	return []models.LeaderboardEntry{}, s.err
}
