package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"bookstore-backend/internal/dto"
	"bookstore-backend/internal/middleware"
	"bookstore-backend/internal/models"
	"bookstore-backend/internal/services"
	"bookstore-backend/utils/response"
)

var tracer = otel.Tracer("bookstore-handlers")

const multipartMemoryLimit = 32 * 1024 * 1024

type BookHandler struct {
	service        *services.BookService
	tempDir        string
	maxUploadBytes int64
}

func NewBookHandler(service *services.BookService, tempDir string, maxUploadBytes int64) *BookHandler {
	return &BookHandler{
		service:        service,
		tempDir:        tempDir,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "create_book")
	defer span.End()

	claims := middleware.GetUserFromContext(ctx)
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	cover, doc, ok := h.stageUploads(w, r)
	if !ok {
		return
	}

	book, err := h.service.CreateBook(ctx, services.CreateBookInput{
		Title:       r.FormValue("title"),
		Genre:       r.FormValue("genre"),
		Description: r.FormValue("description"),
		Cover:       cover,
		Document:    doc,
		AuthorID:    claims.UserID,
	})
	if err != nil {
		span.RecordError(err)
		response.FromError(w, err)
		return
	}

	span.SetAttributes(attribute.String("book_id", book.ID.String()))
	response.JSON(w, http.StatusCreated, response.SuccessResponse{
		Success: true,
		Data:    dto.CreateBookResponse{ID: book.ID},
		Message: "Book created successfully",
	})
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "update_book")
	defer span.End()

	claims := middleware.GetUserFromContext(ctx)
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	bookID, ok := bookIDFromPath(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("book_id", bookID.String()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.Error(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	cover, doc, ok := h.stageUploads(w, r)
	if !ok {
		return
	}

	book, err := h.service.UpdateBook(ctx, services.UpdateBookInput{
		BookID:      bookID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Genre:       r.FormValue("genre"),
		CallerID:    claims.UserID,
		Cover:       cover,
		Document:    doc,
	})
	if err != nil {
		span.RecordError(err)
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SuccessResponse{
		Success: true,
		Data:    dto.NewBookResponse(book),
		Message: "Book updated successfully",
	})
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "get_book")
	defer span.End()

	bookID, ok := bookIDFromPath(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("book_id", bookID.String()))

	book, err := h.service.GetBook(ctx, bookID)
	if err != nil {
		span.RecordError(err)
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SuccessResponse{
		Success: true,
		Data:    dto.NewBookResponse(book),
	})
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "list_books")
	defer span.End()

	books, err := h.service.ListBooks(ctx)
	if err != nil {
		span.RecordError(err)
		response.FromError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("book_count", len(books)))
	response.JSON(w, http.StatusOK, response.SuccessResponse{
		Success: true,
		Data:    dto.NewBookListResponse(books),
	})
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "delete_book")
	defer span.End()

	claims := middleware.GetUserFromContext(ctx)
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	bookID, ok := bookIDFromPath(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("book_id", bookID.String()))

	if err := h.service.DeleteBook(ctx, bookID, claims.UserID); err != nil {
		span.RecordError(err)
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// stageUploads writes the optional cover and book file parts into the
// temp dir. On a staging failure it discards whatever was staged and
// writes the error response itself.
func (h *BookHandler) stageUploads(w http.ResponseWriter, r *http.Request) (cover, doc *models.StagedFile, ok bool) {
	cover, err := stageFormFile(r, "coverImage", h.tempDir)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stage uploaded file: %v", err))
		return nil, nil, false
	}

	doc, err = stageFormFile(r, "file", h.tempDir)
	if err != nil {
		discardStaged(cover)
		response.Error(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stage uploaded file: %v", err))
		return nil, nil, false
	}

	return cover, doc, true
}

func bookIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := mux.Vars(r)["bookId"]
	bookID, err := uuid.Parse(idStr)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid book id")
		return uuid.Nil, false
	}
	return bookID, true
}
