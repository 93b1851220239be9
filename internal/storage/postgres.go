package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstore-backend/internal/apperr"
	"bookstore-backend/internal/database"
	"bookstore-backend/internal/models"
)

// BookStore persists catalog records in Postgres.
type BookStore struct {
	db *database.DB
}

func NewBookStore(db *database.DB) *BookStore {
	return &BookStore{db: db}
}

const bookWithAuthorColumns = `
	b.id, b.title, b.description, b.genre, b.author_id,
	b.cover_image_url, b.file_url, b.created_at, b.updated_at,
	u.username as author_name
`

// CreateBook inserts a record. Constraint and data violations are
// client-attributable and come back as persistence errors.
func (s *BookStore) CreateBook(ctx context.Context, book *models.Book) error {
	ctx, span := tracer.Start(ctx, "postgres.create_book",
		trace.WithAttributes(
			attribute.String("book_id", book.ID.String()),
		),
	)
	defer span.End()

	query := `
		insert into books (id, title, description, genre, author_id, cover_image_url, file_url)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`
	err := s.db.QueryRowxContext(ctx, query,
		book.ID, book.Title, book.Description, book.Genre,
		book.AuthorID, book.CoverImageURL, book.FileURL,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return classifyWriteError("failed to insert book", err)
	}

	span.SetAttributes(attribute.Bool("insert_success", true))
	return nil
}

// GetBook retrieves one record with its owner's name.
func (s *BookStore) GetBook(ctx context.Context, id uuid.UUID) (*models.BookWithAuthor, error) {
	ctx, span := tracer.Start(ctx, "postgres.get_book",
		trace.WithAttributes(
			attribute.String("book_id", id.String()),
		),
	)
	defer span.End()

	query := `
		select ` + bookWithAuthorColumns + `
		from books b
		join users u on u.id = b.author_id
		where b.id = $1
	`
	var book models.BookWithAuthor
	if err := s.db.GetContext(ctx, &book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("found", false))
			return nil, apperr.New(apperr.KindNotFound, "book not found")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query book: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &book, nil
}

// ListBooks retrieves all records, newest first.
func (s *BookStore) ListBooks(ctx context.Context) ([]models.BookWithAuthor, error) {
	ctx, span := tracer.Start(ctx, "postgres.list_books")
	defer span.End()

	query := `
		select ` + bookWithAuthorColumns + `
		from books b
		join users u on u.id = b.author_id
		order by b.created_at desc
	`
	var books []models.BookWithAuthor
	if err := s.db.SelectContext(ctx, &books, query); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	span.SetAttributes(attribute.Int("book_count", len(books)))
	return books, nil
}

// UpdateBook writes every mutable column in one statement; callers
// pass the merged record, so a partial field write can't happen.
func (s *BookStore) UpdateBook(ctx context.Context, book *models.Book) error {
	ctx, span := tracer.Start(ctx, "postgres.update_book",
		trace.WithAttributes(
			attribute.String("book_id", book.ID.String()),
		),
	)
	defer span.End()

	query := `
		update books
		set title = $2, description = $3, genre = $4,
		    cover_image_url = $5, file_url = $6, updated_at = now()
		where id = $1
		returning updated_at
	`
	err := s.db.QueryRowxContext(ctx, query,
		book.ID, book.Title, book.Description, book.Genre,
		book.CoverImageURL, book.FileURL,
	).Scan(&book.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		span.RecordError(err)
		return classifyWriteError("failed to update book", err)
	}

	span.SetAttributes(attribute.Bool("update_success", true))
	return nil
}

// DeleteBook removes a record by id.
func (s *BookStore) DeleteBook(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "postgres.delete_book",
		trace.WithAttributes(
			attribute.String("book_id", id.String()),
		),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, "delete from books where id = $1", id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.KindNotFound, "book not found")
	}

	return nil
}

// classifyWriteError maps data (class 22) and integrity (class 23)
// violations to the persistence kind so they surface as bad input;
// everything else stays a plain wrapped error.
func classifyWriteError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return apperr.Wrap(apperr.KindPersistence, "invalid book data: "+pqErr.Message, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
