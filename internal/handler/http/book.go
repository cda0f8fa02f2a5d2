package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/service"
	apperrors "github.com/davybookzone/server/pkg/errors"
	"github.com/davybookzone/server/pkg/httputil"
	"github.com/davybookzone/server/pkg/middleware"
	"github.com/davybookzone/server/pkg/pagination"
)

// Uploads larger than this are rejected at parse time.
const maxUploadBytes = 32 << 20

// BookHandler serves the public catalog and the admin catalog endpoints.
type BookHandler struct {
	books  *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates the book handler.
func NewBookHandler(books *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// List handles GET /api/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	filter := domain.BookFilter{
		Category:  r.URL.Query().Get("category"),
		Search:    r.URL.Query().Get("search"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}

	books, total, err := h.books.List(r.Context(), filter, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(books, total, p))
}

// Categories handles GET /api/books/categories.
func (h *BookHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.books.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// Get handles GET /api/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	includeInactive := middleware.RoleFromContext(r.Context()) == domain.RoleAdmin

	book, err := h.books.Get(r.Context(), chi.URLParam(r, "id"), includeInactive)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// AdminList handles GET /api/admin/books.
func (h *BookHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	filter := domain.BookFilter{
		Category:  r.URL.Query().Get("category"),
		Search:    r.URL.Query().Get("search"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &active
		}
	}

	books, total, err := h.books.AdminList(r.Context(), filter, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(books, total, p))
}

// Create handles POST /api/books (multipart).
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart form"), h.logger)
		return
	}

	in := &service.CreateBookInput{
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		ShortDescription: r.FormValue("short_description"),
		Author:           r.FormValue("author"),
		Category:         r.FormValue("category"),
		Tags:             splitTags(r.FormValue("tags")),
		AddedBy:          middleware.UserIDFromContext(r.Context()),
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("price must be a number"), h.logger)
		return
	}
	in.Price = price

	cover, err := formFile(r, "cover_image")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if cover != nil {
		defer cover.close()
		in.Cover = cover.upload
	}

	pdf, err := formFile(r, "pdf_file")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if pdf != nil {
		defer pdf.close()
		in.PDF = pdf.upload
	}

	book, err := h.books.Create(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}

// Update handles PUT /api/books/{id} (multipart, files optional).
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart form"), h.logger)
		return
	}

	in := &service.UpdateBookInput{
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		ShortDescription: r.FormValue("short_description"),
		Author:           r.FormValue("author"),
		Category:         r.FormValue("category"),
		Tags:             splitTags(r.FormValue("tags")),
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("price must be a number"), h.logger)
		return
	}
	in.Price = price

	active, err := strconv.ParseBool(r.FormValue("is_active"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("is_active must be a boolean"), h.logger)
		return
	}
	in.IsActive = active

	cover, err := formFile(r, "cover_image")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if cover != nil {
		defer cover.close()
		in.Cover = cover.upload
	}

	pdf, err := formFile(r, "pdf_file")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if pdf != nil {
		defer pdf.close()
		in.PDF = pdf.upload
	}

	book, err := h.books.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// Delete handles DELETE /api/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"message": "book deleted"}})
}

// RecordPurchase handles POST /api/books/{id}/purchase.
func (h *BookHandler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.books.RecordPurchase(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"message": "purchase recorded"}})
}

// ToggleActive handles PUT /api/admin/books/{id}/toggle-status.
func (h *BookHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

type fileField struct {
	upload *service.FileUpload
	close  func()
}

// formFile extracts an optional multipart file. A missing field returns
// (nil, nil); any other failure is an invalid-input error.
func formFile(r *http.Request, field string) (*fileField, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, apperrors.InvalidInput("invalid file field " + field)
	}

	return &fileField{
		upload: &service.FileUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		},
		close: func() { _ = f.Close() },
	}, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
