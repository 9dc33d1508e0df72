package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadingSession is one timed sitting with a book
type ReadingSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	UserID          primitive.ObjectID `bson:"user_id"        json:"user_id"`
	BookID          primitive.ObjectID `bson:"book_id"        json:"book_id"`
	StartedAt       time.Time          `bson:"started_at"     json:"started_at"`
	DurationSeconds int                `bson:"duration_seconds" json:"duration_seconds"`
	StartPage       int                `bson:"start_page"     json:"start_page"`
	EndPage         int                `bson:"end_page"       json:"end_page"`
	Note            string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"     json:"created_at"`
}

// PagesRead never goes negative
func (s ReadingSession) PagesRead() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage
}

type SessionInput struct {
	BookID          string     `json:"book_id"          validate:"required"`
	StartedAt       *time.Time `json:"started_at"`
	DurationSeconds int        `json:"duration_seconds" validate:"gt=0,max=86400"`
	StartPage       int        `json:"start_page"       validate:"min=0"`
	EndPage         int        `json:"end_page"         validate:"min=0,gtefield=StartPage"`
	Note            string     `json:"note"             validate:"omitempty,max=2000"`
}

func (in SessionInput) Validate() error {
	return validateStruct(in)
}
