package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

type NoteService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in models.NoteInput) (*models.Note, error)
	Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Note, error)
	List(ctx context.Context, userID primitive.ObjectID, f models.NoteFilter) ([]models.Note, error)
	Update(ctx context.Context, userID, id primitive.ObjectID, in models.NoteUpdate) (*models.Note, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	ListPublicFeed(ctx context.Context, limit int) ([]models.Note, error)
}

type SocialService interface {
	Like(ctx context.Context, userID, noteID primitive.ObjectID) error
	Unlike(ctx context.Context, userID, noteID primitive.ObjectID) error
	Comment(ctx context.Context, userID, noteID primitive.ObjectID, in models.CommentInput) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID primitive.ObjectID) error
	ListComments(ctx context.Context, userID, noteID primitive.ObjectID) ([]models.Comment, error)
}

type NoteHandler struct {
	noteService   NoteService
	socialService SocialService
}

func NewNoteHandler(noteService NoteService, socialService SocialService) *NoteHandler {
	return &NoteHandler{noteService: noteService, socialService: socialService}
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	var in models.NoteInput
	if !bindJSON(c, &in) {
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), userID, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// List filters by ?book_id= and ?kind=
func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	filter := models.NoteFilter{Kind: models.NoteKind(c.Query("kind"))}
	if raw := c.Query("book_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book_id"})
			return
		}
		filter.BookID = &id
	}

	notes, err := h.noteService.List(c.Request.Context(), userID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	note, err := h.noteService.Get(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Update(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.NoteUpdate
	if !bindJSON(c, &in) {
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.Delete(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NoteHandler) Feed(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	notes, err := h.noteService.ListPublicFeed(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) Like(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.socialService.Like(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "liked"})
}

func (h *NoteHandler) Unlike(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.socialService.Unlike(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NoteHandler) Comment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.CommentInput
	if !bindJSON(c, &in) {
		return
	}

	comment, err := h.socialService.Comment(c.Request.Context(), userID, id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *NoteHandler) ListComments(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	comments, err := h.socialService.ListComments(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *NoteHandler) DeleteComment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.socialService.DeleteComment(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
