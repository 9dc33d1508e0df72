package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

type SessionService interface {
	LogSession(ctx context.Context, userID primitive.ObjectID, in models.SessionInput) (*models.ReadingSession, error)
	ListSessions(ctx context.Context, userID primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error)
	DeleteSession(ctx context.Context, userID, id primitive.ObjectID) error
}

type SessionHandler struct {
	sessionService SessionService
}

func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) LogSession(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	var in models.SessionInput
	if !bindJSON(c, &in) {
		return
	}

	session, err := h.sessionService.LogSession(c.Request.Context(), userID, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var bookID *primitive.ObjectID
	if raw := c.Query("book_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book_id"})
			return
		}
		bookID = &id
	}

	sessions, err := h.sessionService.ListSessions(c.Request.Context(), userID, bookID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
