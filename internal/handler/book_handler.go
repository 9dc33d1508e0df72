package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
)

type BookService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in models.BookInput) (*models.Book, error)
	Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Book, error)
	List(ctx context.Context, userID primitive.ObjectID, status models.BookStatus) ([]models.Book, error)
	Update(ctx context.Context, userID, id primitive.ObjectID, in models.BookUpdate) (*models.Book, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	UploadCover(ctx context.Context, userID, id primitive.ObjectID, filename string, size int64, reader io.Reader) (*models.Book, error)
}

type BookHandler struct {
	bookService BookService
}

func NewBookHandler(bookService BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (h *BookHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	var in models.BookInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := h.bookService.Create(c.Request.Context(), userID, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// List accepts an optional ?status= filter
func (h *BookHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	books, err := h.bookService.List(c.Request.Context(), userID, models.BookStatus(c.Query("status")))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *BookHandler) Get(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	book, err := h.bookService.Get(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Update(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.BookUpdate
	if !bindJSON(c, &in) {
		return
	}

	book, err := h.bookService.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.bookService.Delete(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookHandler) UploadCover(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	book, err := h.bookService.UploadCover(c.Request.Context(), userID, id, header.Filename, header.Size, file)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}
