package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"bookstore-backend/internal/apperr"
	"bookstore-backend/internal/middleware"
	"bookstore-backend/internal/models"
	"bookstore-backend/internal/services"
	"bookstore-backend/internal/storage"
)

type fakeObjectStore struct {
	uploads int
}

func (f *fakeObjectStore) Upload(_ context.Context, kind storage.BucketKind, _, folder, objectName, format string) (string, error) {
	f.uploads++
	return fmt.Sprintf("http://fake:9000/%s-bucket/%s", kind, storage.ObjectKey(kind, folder, objectName, format)), nil
}

func (f *fakeObjectStore) Delete(context.Context, storage.BucketKind, string) error {
	return nil
}

type fakeBookStore struct {
	books map[uuid.UUID]*models.BookWithAuthor
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: map[uuid.UUID]*models.BookWithAuthor{}}
}

func (f *fakeBookStore) CreateBook(_ context.Context, book *models.Book) error {
	f.books[book.ID] = &models.BookWithAuthor{Book: *book, AuthorName: "author"}
	return nil
}

func (f *fakeBookStore) GetBook(_ context.Context, id uuid.UUID) (*models.BookWithAuthor, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "book not found")
	}
	copied := *book
	return &copied, nil
}

func (f *fakeBookStore) ListBooks(context.Context) ([]models.BookWithAuthor, error) {
	var out []models.BookWithAuthor
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookStore) UpdateBook(_ context.Context, book *models.Book) error {
	existing, ok := f.books[book.ID]
	if !ok {
		return apperr.New(apperr.KindNotFound, "book not found")
	}
	existing.Book = *book
	return nil
}

func (f *fakeBookStore) DeleteBook(_ context.Context, id uuid.UUID) error {
	delete(f.books, id)
	return nil
}

type testFile struct {
	field    string
	name     string
	mimeType string
}

func newMultipartRequest(t *testing.T, method, target string, fields map[string]string, files []testFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		header.Set("Content-Type", f.mimeType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part %s: %v", f.field, err)
		}
		if _, err := part.Write([]byte("file content")); err != nil {
			t.Fatalf("failed to write part %s: %v", f.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, &middleware.UserClaims{
		UserID:   userID,
		Username: "tester",
		Email:    "tester@example.com",
	})
	return req.WithContext(ctx)
}

func newTestHandler(t *testing.T) (*BookHandler, *fakeBookStore) {
	t.Helper()
	store := newFakeBookStore()
	svc := services.NewBookService(&fakeObjectStore{}, store, nil)
	return NewBookHandler(svc, t.TempDir(), 10*1024*1024), store
}

func newTestRouter(h *BookHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/books", h.CreateBook).Methods("POST")
	router.HandleFunc("/api/books", h.ListBooks).Methods("GET")
	router.HandleFunc("/api/books/{bookId}", h.GetBook).Methods("GET")
	router.HandleFunc("/api/books/{bookId}", h.UpdateBook).Methods("PATCH")
	router.HandleFunc("/api/books/{bookId}", h.DeleteBook).Methods("DELETE")
	return router
}

func TestCreateBookHandler_Success(t *testing.T) {
	h, store := newTestHandler(t)
	router := newTestRouter(h)

	req := newMultipartRequest(t, http.MethodPost, "/api/books",
		map[string]string{"title": "Dune", "genre": "SciFi", "description": "A desert planet"},
		[]testFile{
			{"coverImage", "cover.jpg", "image/jpeg"},
			{"file", "book.pdf", "application/pdf"},
		},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.ID == uuid.Nil {
		t.Error("expected a non-empty book id")
	}

	book, ok := store.books[resp.Data.ID]
	if !ok {
		t.Fatal("record should exist in the store")
	}
	if book.CoverImageURL == "" || book.FileURL == "" {
		t.Error("expected both URLs to be non-empty")
	}
}

func TestCreateBookHandler_MissingTitle(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newTestRouter(h)

	req := newMultipartRequest(t, http.MethodPost, "/api/books",
		map[string]string{"genre": "SciFi", "description": "A desert planet"},
		[]testFile{
			{"coverImage", "cover.jpg", "image/jpeg"},
			{"file", "book.pdf", "application/pdf"},
		},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateBookHandler_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newTestRouter(h)

	req := newMultipartRequest(t, http.MethodPost, "/api/books", nil, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateBookHandler_Forbidden(t *testing.T) {
	h, store := newTestHandler(t)
	router := newTestRouter(h)

	owner := uuid.New()
	book := &models.BookWithAuthor{
		Book: models.Book{
			ID:            uuid.New(),
			Title:         "Dune",
			Description:   "A desert planet",
			Genre:         "SciFi",
			AuthorID:      owner,
			CoverImageURL: "http://fake:9000/image-bucket/covers/a.jpeg",
			FileURL:       "http://fake:9000/raw-bucket/books/a",
		},
		AuthorName: "author",
	}
	store.books[book.ID] = book

	req := newMultipartRequest(t, http.MethodPatch, "/api/books/"+book.ID.String(),
		map[string]string{"title": "Hijacked"}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, uuid.New()))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.books[book.ID].Title != "Dune" {
		t.Error("record should be unchanged")
	}
}

func TestGetBookHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/books/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteBookHandler_NoContent(t *testing.T) {
	h, store := newTestHandler(t)
	router := newTestRouter(h)

	owner := uuid.New()
	book := &models.BookWithAuthor{
		Book: models.Book{
			ID:            uuid.New(),
			Title:         "Dune",
			Description:   "A desert planet",
			Genre:         "SciFi",
			AuthorID:      owner,
			CoverImageURL: "http://fake:9000/image-bucket/covers/a.jpeg",
			FileURL:       "http://fake:9000/raw-bucket/books/a",
		},
		AuthorName: "author",
	}
	store.books[book.ID] = book

	req := httptest.NewRequest(http.MethodDelete, "/api/books/"+book.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, owner))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if _, ok := store.books[book.ID]; ok {
		t.Error("record should be removed")
	}
}

func TestBookIDFromPath_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/books/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
