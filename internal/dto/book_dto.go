package dto

import (
	"time"

	"github.com/google/uuid"

	"bookstore-backend/internal/models"
)

type CreateBookResponse struct {
	ID uuid.UUID `json:"id"`
}

// AuthorProjection is the minimal owner view embedded in book reads.
type AuthorProjection struct {
	Name string `json:"name"`
}

type BookResponse struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Genre         string           `json:"genre"`
	Author        AuthorProjection `json:"author"`
	CoverImageURL string           `json:"cover_image_url"`
	FileURL       string           `json:"file_url"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func NewBookResponse(b *models.BookWithAuthor) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Description:   b.Description,
		Genre:         b.Genre,
		Author:        AuthorProjection{Name: b.AuthorName},
		CoverImageURL: b.CoverImageURL,
		FileURL:       b.FileURL,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func NewBookListResponse(books []models.BookWithAuthor) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, NewBookResponse(&books[i]))
	}
	return out
}
