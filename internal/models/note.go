package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteKind string

const (
	KindQuote    NoteKind = "quote"
	KindCritique NoteKind = "critique"
	KindReview   NoteKind = "review"
	KindQuestion NoteKind = "question"
)

func (k NoteKind) IsValid() bool {
	switch k {
	case KindQuote, KindCritique, KindReview, KindQuestion:
		return true
	}
	return false
}

// Note is a quote, critique, review or question attached to a book
type Note struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	UserID        primitive.ObjectID `bson:"user_id"        json:"user_id"`
	BookID        primitive.ObjectID `bson:"book_id"        json:"book_id"`
	Kind          NoteKind           `bson:"kind"           json:"kind"`
	Content       string             `bson:"content"        json:"content"`
	Page          int                `bson:"page,omitempty" json:"page,omitempty"`
	Public        bool               `bson:"public"         json:"public"`
	LikesCount    int                `bson:"likes_count"    json:"likes_count"`
	CommentsCount int                `bson:"comments_count" json:"comments_count"`
	CreatedAt     time.Time          `bson:"created_at"     json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"     json:"updated_at"`
}

type NoteInput struct {
	BookID  string   `json:"book_id" validate:"required"`
	Kind    NoteKind `json:"kind"    validate:"required,oneof=quote critique review question"`
	Content string   `json:"content" validate:"required,max=10000"`
	Page    int      `json:"page"    validate:"min=0"`
	Public  bool     `json:"public"`
}

func (in NoteInput) Validate() error {
	return validateStruct(in)
}

type NoteUpdate struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=10000"`
	Page    *int    `json:"page"    validate:"omitempty,min=0"`
	Public  *bool   `json:"public"`
}

func (u NoteUpdate) Validate() error {
	return validateStruct(u)
}

type NoteFilter struct {
	BookID *primitive.ObjectID
	Kind   NoteKind
}
