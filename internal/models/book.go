package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookStatus string

const (
	StatusWantToRead BookStatus = "want_to_read"
	StatusReading    BookStatus = "reading"
	StatusFinished   BookStatus = "finished"
	StatusAbandoned  BookStatus = "abandoned"
)

func (s BookStatus) IsValid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusFinished, StatusAbandoned:
		return true
	}
	return false
}

// Book is one entry of a reader's shelf
type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"         json:"id"`
	UserID      primitive.ObjectID `bson:"user_id"               json:"user_id"`
	Title       string             `bson:"title"                 json:"title"        validate:"required,max=256"`
	Author      string             `bson:"author"                json:"author"       validate:"required,max=256"`
	ISBN        string             `bson:"isbn,omitempty"        json:"isbn,omitempty" validate:"omitempty,max=17"`
	Genre       string             `bson:"genre,omitempty"       json:"genre,omitempty"`
	TotalPages  int                `bson:"total_pages"           json:"total_pages"  validate:"min=0"`
	CurrentPage int                `bson:"current_page"          json:"current_page" validate:"min=0"`
	Status      BookStatus         `bson:"status"                json:"status"       validate:"required,oneof=want_to_read reading finished abandoned"`
	Rating      int                `bson:"rating"                json:"rating"       validate:"min=0,max=5"`
	CoverURL    string             `bson:"cover_url,omitempty"   json:"cover_url,omitempty"`
	StartedAt   *time.Time         `bson:"started_at,omitempty"  json:"started_at,omitempty"`
	FinishedAt  *time.Time         `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"            json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"            json:"updated_at"`
}

func (b Book) Validate() error {
	return validateStruct(b)
}

// SetStatus moves the book to status and stamps the reading dates.
func (b *Book) SetStatus(status BookStatus, now time.Time) {
	if status == b.Status {
		return
	}

	switch status {
	case StatusReading:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
		b.FinishedAt = nil
	case StatusFinished:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
		b.FinishedAt = &now
		if b.TotalPages > 0 {
			b.CurrentPage = b.TotalPages
		}
	case StatusWantToRead:
		b.StartedAt = nil
		b.FinishedAt = nil
	}
	b.Status = status
}

type BookInput struct {
	Title      string     `json:"title"       validate:"required,max=256"`
	Author     string     `json:"author"      validate:"required,max=256"`
	ISBN       string     `json:"isbn"        validate:"omitempty,max=17"`
	Genre      string     `json:"genre"       validate:"omitempty,max=64"`
	TotalPages int        `json:"total_pages" validate:"min=0"`
	Status     BookStatus `json:"status"      validate:"omitempty,oneof=want_to_read reading finished abandoned"`
	Rating     int        `json:"rating"      validate:"min=0,max=5"`
}

func (in BookInput) Validate() error {
	return validateStruct(in)
}

type BookUpdate struct {
	Title       *string     `json:"title"        validate:"omitempty,min=1,max=256"`
	Author      *string     `json:"author"       validate:"omitempty,min=1,max=256"`
	ISBN        *string     `json:"isbn"         validate:"omitempty,max=17"`
	Genre       *string     `json:"genre"        validate:"omitempty,max=64"`
	TotalPages  *int        `json:"total_pages"  validate:"omitempty,min=0"`
	CurrentPage *int        `json:"current_page" validate:"omitempty,min=0"`
	Status      *BookStatus `json:"status"       validate:"omitempty,oneof=want_to_read reading finished abandoned"`
	Rating      *int        `json:"rating"       validate:"omitempty,min=0,max=5"`
}

func (u BookUpdate) Validate() error {
	return validateStruct(u)
}
