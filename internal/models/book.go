package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog record. The two URL columns always point at
// objects that existed in the remote store when the record was
// committed; a record is never persisted with an empty URL.
type Book struct {
	ID uuid.UUID `db:"id" json:"id"`

	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Genre       string    `db:"genre" json:"genre"`
	AuthorID    uuid.UUID `db:"author_id" json:"author_id"`

	CoverImageURL string `db:"cover_image_url" json:"cover_image_url"`
	FileURL       string `db:"file_url" json:"file_url"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BookWithAuthor is a Book joined with its owner's display name.
type BookWithAuthor struct {
	Book
	AuthorName string `db:"author_name" json:"author_name"`
}
