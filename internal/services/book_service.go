package services

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstore-backend/internal/apperr"
	"bookstore-backend/internal/models"
	"bookstore-backend/internal/storage"
)

var tracer = otel.Tracer("bookstore-services")

const (
	coverFolder    = "covers"
	documentFolder = "books"

	imageMIMEPrefix = "image/"
	pdfMIMEType     = "application/pdf"
	pdfFormat       = "pdf"
)

// ObjectStore is the remote object store as the orchestrators see it.
type ObjectStore interface {
	Upload(ctx context.Context, kind storage.BucketKind, localPath, folder, objectName, format string) (string, error)
	Delete(ctx context.Context, kind storage.BucketKind, objectKey string) error
}

// BookStore is the catalog record store.
type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.BookWithAuthor, error)
	ListBooks(ctx context.Context) ([]models.BookWithAuthor, error)
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// BookCache caches single-book lookups. A nil cache disables caching.
type BookCache interface {
	GetBook(ctx context.Context, id uuid.UUID) (*models.BookWithAuthor, error)
	SetBook(ctx context.Context, book *models.BookWithAuthor) error
	InvalidateBook(ctx context.Context, id uuid.UUID) error
}

// BookService sequences validation, remote uploads and persistence
// for one logical catalog operation.
type BookService struct {
	objects ObjectStore
	books   BookStore
	cache   BookCache
}

func NewBookService(objects ObjectStore, books BookStore, cache BookCache) *BookService {
	return &BookService{objects: objects, books: books, cache: cache}
}

type CreateBookInput struct {
	Title       string
	Genre       string
	Description string
	Cover       *models.StagedFile
	Document    *models.StagedFile
	AuthorID    uuid.UUID
}

// CreateBook validates the request, uploads the cover then the
// document, persists the record and unlinks the staged files. The two
// uploads are sequential so a failure is attributable to one step.
func (s *BookService) CreateBook(ctx context.Context, in CreateBookInput) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "book_service.create",
		trace.WithAttributes(attribute.String("author_id", in.AuthorID.String())),
	)
	defer span.End()

	cleanup := newCleanupList()
	if in.Cover != nil {
		cleanup.add("remove staged cover file", removeIfExists(in.Cover.LocalPath))
	}
	if in.Document != nil {
		cleanup.add("remove staged book file", removeIfExists(in.Document.LocalPath))
	}

	if err := validateCreateInput(in); err != nil {
		cleanup.run()
		return nil, err
	}

	for _, f := range []*models.StagedFile{in.Cover, in.Document} {
		if _, err := os.Stat(f.LocalPath); err != nil {
			cleanup.run()
			span.RecordError(err)
			return nil, apperr.Wrap(apperr.KindValidation, "uploaded file "+f.OriginalName+" was not staged", err)
		}
	}

	coverURL, err := s.objects.Upload(ctx, storage.BucketImage,
		in.Cover.LocalPath, coverFolder, uuid.New().String(), imageFormat(in.Cover.MimeType))
	if err != nil {
		cleanup.run()
		span.RecordError(err)
		return nil, classifyUploadError(err)
	}

	// If this upload fails the cover object stays behind; remote
	// orphans on a failed create are accepted, only local files are
	// compensated.
	fileURL, err := s.objects.Upload(ctx, storage.BucketRaw,
		in.Document.LocalPath, documentFolder, uuid.New().String(), pdfFormat)
	if err != nil {
		cleanup.run()
		span.RecordError(err)
		return nil, classifyUploadError(err)
	}

	book := &models.Book{
		ID:            uuid.New(),
		Title:         in.Title,
		Description:   in.Description,
		Genre:         in.Genre,
		AuthorID:      in.AuthorID,
		CoverImageURL: coverURL,
		FileURL:       fileURL,
	}
	if err := s.books.CreateBook(ctx, book); err != nil {
		cleanup.run()
		span.RecordError(err)
		return nil, classifyPersistError(err)
	}

	// Record is durable; staged files are garbage now.
	cleanup.run()

	span.SetAttributes(attribute.String("book_id", book.ID.String()))
	return book, nil
}

type UpdateBookInput struct {
	BookID      uuid.UUID
	Title       string
	Description string
	Genre       string
	CallerID    uuid.UUID
	Cover       *models.StagedFile
	Document    *models.StagedFile
}

// UpdateBook replaces metadata and, independently, either uploaded
// file. Replacement uploads run before the single catalog update, so
// a failed upload leaves the stored record untouched. Staged files
// are only unlinked on the success path here.
func (s *BookService) UpdateBook(ctx context.Context, in UpdateBookInput) (*models.BookWithAuthor, error) {
	ctx, span := tracer.Start(ctx, "book_service.update",
		trace.WithAttributes(attribute.String("book_id", in.BookID.String())),
	)
	defer span.End()

	existing, err := s.books.GetBook(ctx, in.BookID)
	if err != nil {
		return nil, classifyLookupError(err)
	}
	if existing.AuthorID.String() != in.CallerID.String() {
		return nil, apperr.New(apperr.KindPermission, "you do not own this book")
	}

	// Both content types are checked before any network call.
	if in.Cover != nil && !strings.HasPrefix(in.Cover.MimeType, imageMIMEPrefix) {
		return nil, apperr.New(apperr.KindValidation, "cover must be an image file")
	}
	if in.Document != nil && in.Document.MimeType != pdfMIMEType {
		return nil, apperr.New(apperr.KindValidation, "book file must be a PDF")
	}

	coverURL := existing.CoverImageURL
	if in.Cover != nil {
		url, err := s.replaceFile(ctx, storage.BucketImage, in.Cover, coverFolder, imageFormat(in.Cover.MimeType))
		if err != nil {
			return nil, err
		}
		coverURL = url
	}

	fileURL := existing.FileURL
	if in.Document != nil {
		url, err := s.replaceFile(ctx, storage.BucketRaw, in.Document, documentFolder, pdfFormat)
		if err != nil {
			return nil, err
		}
		fileURL = url
	}

	updated := existing.Book
	updated.Title = nonEmptyOr(in.Title, existing.Title)
	updated.Description = nonEmptyOr(in.Description, existing.Description)
	updated.Genre = nonEmptyOr(in.Genre, existing.Genre)
	updated.CoverImageURL = coverURL
	updated.FileURL = fileURL

	if err := s.books.UpdateBook(ctx, &updated); err != nil {
		return nil, classifyPersistError(err)
	}

	s.invalidateCache(ctx, updated.ID)

	return &models.BookWithAuthor{Book: updated, AuthorName: existing.AuthorName}, nil
}

// replaceFile stages one replacement upload: verify presence, upload,
// unlink the temp file on success.
func (s *BookService) replaceFile(ctx context.Context, kind storage.BucketKind, f *models.StagedFile, folder, format string) (string, error) {
	if _, err := os.Stat(f.LocalPath); err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "uploaded file "+f.OriginalName+" was not staged", err)
	}

	url, err := s.objects.Upload(ctx, kind, f.LocalPath, folder, uuid.New().String(), format)
	if err != nil {
		return "", classifyUploadError(err)
	}

	if err := os.Remove(f.LocalPath); err != nil {
		log.Printf("Warning: failed to remove staged file %s: %v", f.LocalPath, err)
	}
	return url, nil
}

// DeleteBook removes the remote objects best-effort, then the catalog
// record unconditionally. A failed remote delete leaves a storage
// orphan but never a dangling catalog entry.
func (s *BookService) DeleteBook(ctx context.Context, bookID, callerID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "book_service.delete",
		trace.WithAttributes(attribute.String("book_id", bookID.String())),
	)
	defer span.End()

	existing, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return classifyLookupError(err)
	}
	if existing.AuthorID.String() != callerID.String() {
		return apperr.New(apperr.KindPermission, "you do not own this book")
	}

	var remoteErrs *multierror.Error
	for _, target := range []struct {
		kind storage.BucketKind
		url  string
	}{
		{storage.BucketImage, existing.CoverImageURL},
		{storage.BucketRaw, existing.FileURL},
	} {
		ref, err := storage.ParseObjectURL(target.url, target.kind)
		if err != nil {
			remoteErrs = multierror.Append(remoteErrs, err)
			continue
		}
		if err := s.objects.Delete(ctx, target.kind, ref.ObjectKey); err != nil {
			remoteErrs = multierror.Append(remoteErrs, err)
		}
	}
	if err := remoteErrs.ErrorOrNil(); err != nil {
		log.Printf("Warning: remote cleanup for book %s incomplete: %v", bookID, err)
		span.RecordError(err)
	}

	if err := s.books.DeleteBook(ctx, bookID); err != nil {
		return classifyPersistError(err)
	}

	s.invalidateCache(ctx, bookID)

	return nil
}

// GetBook reads through the cache.
func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*models.BookWithAuthor, error) {
	if s.cache != nil {
		cached, err := s.cache.GetBook(ctx, id)
		if err != nil {
			log.Printf("Warning: cache read for book %s failed: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, classifyLookupError(err)
	}

	if s.cache != nil {
		if err := s.cache.SetBook(ctx, book); err != nil {
			log.Printf("Warning: cache write for book %s failed: %v", id, err)
		}
	}
	return book, nil
}

func (s *BookService) ListBooks(ctx context.Context) ([]models.BookWithAuthor, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, classifyLookupError(err)
	}
	return books, nil
}

func (s *BookService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBook(ctx, id); err != nil {
		log.Printf("Warning: cache invalidation for book %s failed: %v", id, err)
	}
}

func validateCreateInput(in CreateBookInput) error {
	switch {
	case in.Title == "":
		return apperr.New(apperr.KindValidation, "title is required")
	case in.Genre == "":
		return apperr.New(apperr.KindValidation, "genre is required")
	case in.Description == "":
		return apperr.New(apperr.KindValidation, "description is required")
	case in.Cover == nil:
		return apperr.New(apperr.KindValidation, "cover image file is required")
	case in.Document == nil:
		return apperr.New(apperr.KindValidation, "book file is required")
	case !strings.HasPrefix(in.Cover.MimeType, imageMIMEPrefix):
		return apperr.New(apperr.KindValidation, "cover must be an image file")
	case in.Document.MimeType != pdfMIMEType:
		return apperr.New(apperr.KindValidation, "book file must be a PDF")
	}
	return nil
}

// imageFormat is the subtype portion of an image MIME type.
func imageFormat(mimeType string) string {
	return strings.TrimPrefix(mimeType, imageMIMEPrefix)
}

func nonEmptyOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func classifyUploadError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.Wrap(apperr.KindValidation, "staged upload file is missing", err)
	}
	return apperr.Wrap(apperr.KindUpstreamStorage, "failed to upload file to object storage", err)
}

func classifyPersistError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindUnknown, "failed to persist book record", err)
}

func classifyLookupError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindUnknown, "failed to load book record", err)
}
