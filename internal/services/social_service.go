package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

// SocialService handles likes and comments. Every counter it touches moves
// through a single $inc, so concurrent likes never lose updates.
type SocialService struct {
	notes  NoteRepository
	social SocialRepository
	stats  StatisticsUpdater
}

func NewSocialService(notes NoteRepository, social SocialRepository, stats StatisticsUpdater) *SocialService {
	return &SocialService{notes: notes, social: social, stats: stats}
}

func (s *SocialService) visibleNote(ctx context.Context, userID, noteID primitive.ObjectID) (*models.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID && !note.Public {
		return nil, models.ErrNotFound
	}
	return note, nil
}

// Like fails with ErrDuplicate when the user already liked the note
func (s *SocialService) Like(ctx context.Context, userID, noteID primitive.ObjectID) error {
	note, err := s.visibleNote(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if note.UserID == userID {
		return models.ErrForbidden
	}

	like := &models.Like{NoteID: noteID, UserID: userID, AuthorID: note.UserID}
	if err := s.social.InsertLike(ctx, like); err != nil {
		return err
	}

	if err := s.notes.IncrementCounters(ctx, noteID, 1, 0); err != nil {
		return err
	}
	return s.stats.Apply(ctx, note.UserID, models.CounterDelta{LikesReceived: 1}, nil)
}

// Unlike only moves counters when a like was actually removed
func (s *SocialService) Unlike(ctx context.Context, userID, noteID primitive.ObjectID) error {
	like, err := s.social.DeleteLike(ctx, noteID, userID)
	if err != nil {
		return err
	}

	if err := s.notes.IncrementCounters(ctx, noteID, -1, 0); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.stats.Apply(ctx, like.AuthorID, models.CounterDelta{LikesReceived: -1}, nil)
}

func (s *SocialService) Comment(ctx context.Context, userID, noteID primitive.ObjectID, in models.CommentInput) (*models.Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	note, err := s.visibleNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		NoteID:   noteID,
		UserID:   userID,
		AuthorID: note.UserID,
		Content:  strings.TrimSpace(in.Content),
	}
	if err := s.social.InsertComment(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.notes.IncrementCounters(ctx, noteID, 0, 1); err != nil {
		return nil, err
	}
	if err := s.stats.Apply(ctx, userID, models.CounterDelta{CommentsWritten: 1}, nil); err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment is allowed only for the comment's author
func (s *SocialService) DeleteComment(ctx context.Context, userID, commentID primitive.ObjectID) error {
	comment, err := s.social.DeleteComment(ctx, commentID, userID)
	if errors.Is(err, models.ErrNotFound) {
		if _, getErr := s.social.GetComment(ctx, commentID); getErr == nil {
			return models.ErrForbidden
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := s.notes.IncrementCounters(ctx, comment.NoteID, 0, -1); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.stats.Apply(ctx, userID, models.CounterDelta{CommentsWritten: -1}, nil)
}

func (s *SocialService) ListComments(ctx context.Context, userID, noteID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.visibleNote(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.social.ListComments(ctx, noteID)
}
