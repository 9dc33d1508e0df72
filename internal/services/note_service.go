package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type NoteService struct {
	notes  NoteRepository
	books  BookRepository
	social SocialRepository
	stats  StatisticsUpdater
}

func NewNoteService(notes NoteRepository, books BookRepository, social SocialRepository, stats StatisticsUpdater) *NoteService {
	return &NoteService{notes: notes, books: books, social: social, stats: stats}
}

func (s *NoteService) Create(ctx context.Context, userID primitive.ObjectID, in models.NoteInput) (*models.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	bookID, err := ParseID(in.BookID)
	if err != nil {
		return nil, err
	}
	if _, err := s.books.GetByID(ctx, userID, bookID); err != nil {
		return nil, err
	}

	note := &models.Note{
		UserID:  userID,
		BookID:  bookID,
		Kind:    in.Kind,
		Content: strings.TrimSpace(in.Content),
		Page:    in.Page,
		Public:  in.Public,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// Get returns a note the user owns or one that is public
func (s *NoteService) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID && !note.Public {
		return nil, models.ErrNotFound
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, userID primitive.ObjectID, f models.NoteFilter) ([]models.Note, error) {
	if f.Kind != "" && !f.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", models.ErrValidation, f.Kind)
	}
	return s.notes.List(ctx, userID, f)
}

func (s *NoteService) Update(ctx context.Context, userID, id primitive.ObjectID, in models.NoteUpdate) (*models.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fields := bson.M{}
	if in.Content != nil {
		fields["content"] = strings.TrimSpace(*in.Content)
	}
	if in.Page != nil {
		fields["page"] = *in.Page
	}
	if in.Public != nil {
		fields["public"] = *in.Public
	}
	if len(fields) == 0 {
		return s.Get(ctx, userID, id)
	}

	return s.notes.UpdateFields(ctx, userID, id, fields)
}

// Delete removes the note with its likes and comments and reverses their counters
func (s *NoteService) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if note.UserID != userID {
		return models.ErrForbidden
	}

	if err := purgeSocial(ctx, s.social, s.stats, []primitive.ObjectID{id}); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, userID, id); err != nil {
		return err
	}

	if note.LikesCount > 0 {
		return s.stats.Apply(ctx, userID, models.CounterDelta{LikesReceived: -note.LikesCount}, nil)
	}
	return nil
}

func (s *NoteService) ListPublicFeed(ctx context.Context, limit int) ([]models.Note, error) {
	if limit == 0 {
		limit = defaultFeedLimit
	}
	if limit < 1 || limit > maxFeedLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrValidation, maxFeedLimit)
	}
	return s.notes.ListPublic(ctx, int64(limit))
}

// purgeSocial deletes the likes and comments on noteIDs and takes the
// removed comments off each commenter's total. Likes received are the
// caller's concern since they all belong to the note owner.
func purgeSocial(ctx context.Context, social SocialRepository, stats StatisticsUpdater, noteIDs []primitive.ObjectID) error {
	if len(noteIDs) == 0 {
		return nil
	}

	commenters, err := social.CommentersOf(ctx, noteIDs)
	if err != nil {
		return err
	}
	if err := social.DeleteByNotes(ctx, noteIDs); err != nil {
		return err
	}

	for userID, count := range commenters {
		if err := stats.Apply(ctx, userID, models.CounterDelta{CommentsWritten: -count}, nil); err != nil {
			return err
		}
	}

	return nil
}
