package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like is unique per (note, user)
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NoteID    primitive.ObjectID `bson:"note_id"       json:"note_id"`
	UserID    primitive.ObjectID `bson:"user_id"       json:"user_id"`
	AuthorID  primitive.ObjectID `bson:"author_id"     json:"author_id"`
	CreatedAt time.Time          `bson:"created_at"    json:"created_at"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NoteID    primitive.ObjectID `bson:"note_id"       json:"note_id"`
	UserID    primitive.ObjectID `bson:"user_id"       json:"user_id"`
	AuthorID  primitive.ObjectID `bson:"author_id"     json:"author_id"`
	Content   string             `bson:"content"       json:"content"`
	CreatedAt time.Time          `bson:"created_at"    json:"created_at"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (in CommentInput) Validate() error {
	return validateStruct(in)
}
