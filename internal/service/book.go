package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/davybookzone/server/internal/cache"
	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/event"
	"github.com/davybookzone/server/internal/repository"
	"github.com/davybookzone/server/internal/storage"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// BookService manages the catalog. Public reads go through the Redis cache;
// every admin write invalidates it.
type BookService struct {
	books   repository.BookRepository
	storage storage.Storage
	cache   *cache.BookCache
	events  *event.Producer
	logger  *slog.Logger

	now func() time.Time
}

// NewBookService creates the catalog service.
func NewBookService(
	books repository.BookRepository,
	store storage.Storage,
	bookCache *cache.BookCache,
	events *event.Producer,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		books:   books,
		storage: store,
		cache:   bookCache,
		events:  events,
		logger:  logger.With(slog.String("component", "book_service")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the public catalog: active books only, filtered and paginated.
func (s *BookService) List(ctx context.Context, filter domain.BookFilter, limit, offset int) ([]*domain.Book, int, error) {
	filter.ActiveOnly = true
	filter.IsActive = nil

	key := cache.ListKey(filter, limit, offset)
	if cached, ok := s.cache.GetList(ctx, key); ok {
		return cached.Books, cached.Total, nil
	}

	books, total, err := s.books.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	s.cache.SetList(ctx, key, &cache.CachedBookList{Books: books, Total: total})
	return books, total, nil
}

// AdminList returns the full catalog, inactive books included.
func (s *BookService) AdminList(ctx context.Context, filter domain.BookFilter, limit, offset int) ([]*domain.Book, int, error) {
	filter.ActiveOnly = false
	books, total, err := s.books.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

// Get returns one book and bumps its view counter. Inactive books are hidden
// from non-admin callers.
func (s *BookService) Get(ctx context.Context, id string, includeInactive bool) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}

	if !book.IsActive && !includeInactive {
		return nil, apperrors.NotFound("book", id)
	}

	if err := s.books.IncrementViewCount(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "increment view count failed",
			slog.String("book_id", id),
			slog.String("error", err.Error()),
		)
	}

	return book, nil
}

// Categories returns the distinct categories of active books.
func (s *BookService) Categories(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.GetCategories(ctx); ok {
		return cached, nil
	}

	categories, err := s.books.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	s.cache.SetCategories(ctx, categories)
	return categories, nil
}

// FileUpload is one multipart file attached to a create or update request.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateBookInput is the payload for catalog additions.
type CreateBookInput struct {
	Title            string
	Description      string
	ShortDescription string
	Author           string
	Category         string
	Price            float64
	Tags             []string
	AddedBy          string
	Cover            *FileUpload
	PDF              *FileUpload
}

// Create adds a book, storing its cover and PDF through the blob store.
func (s *BookService) Create(ctx context.Context, in *CreateBookInput) (*domain.Book, error) {
	if !domain.IsValidCategory(in.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if in.Cover == nil || in.PDF == nil {
		return nil, apperrors.InvalidInput("cover image and pdf file are required")
	}

	id := uuid.New().String()

	cover, err := s.upload(ctx, "covers", id, in.Cover)
	if err != nil {
		return nil, err
	}
	pdf, err := s.upload(ctx, "books", id, in.PDF)
	if err != nil {
		s.removeFile(ctx, cover.Key)
		return nil, err
	}

	now := s.now()
	book := &domain.Book{
		ID:               id,
		Title:            in.Title,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Author:           in.Author,
		Category:         in.Category,
		Price:            in.Price,
		CoverImage:       *cover,
		PDFFile:          *pdf,
		IsActive:         true,
		Tags:             in.Tags,
		AddedBy:          in.AddedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.books.Create(ctx, book); err != nil {
		s.removeFile(ctx, cover.Key)
		s.removeFile(ctx, pdf.Key)
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.cache.Invalidate(ctx)
	s.events.BookCreated(ctx, book)
	s.logger.InfoContext(ctx, "book created", slog.String("book_id", book.ID), slog.String("title", book.Title))

	return book, nil
}

// UpdateBookInput is the payload for catalog edits. Nil files keep the
// existing blobs.
type UpdateBookInput struct {
	Title            string
	Description      string
	ShortDescription string
	Author           string
	Category         string
	Price            float64
	Tags             []string
	IsActive         bool
	Cover            *FileUpload
	PDF              *FileUpload
}

// Update edits a book, replacing its stored files when new ones are attached.
func (s *BookService) Update(ctx context.Context, id string, in *UpdateBookInput) (*domain.Book, error) {
	if !domain.IsValidCategory(in.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}

	oldCover, oldPDF := book.CoverImage.Key, book.PDFFile.Key

	if in.Cover != nil {
		cover, err := s.upload(ctx, "covers", id, in.Cover)
		if err != nil {
			return nil, err
		}
		book.CoverImage = *cover
	}
	if in.PDF != nil {
		pdf, err := s.upload(ctx, "books", id, in.PDF)
		if err != nil {
			return nil, err
		}
		book.PDFFile = *pdf
	}

	book.Title = in.Title
	book.Description = in.Description
	book.ShortDescription = in.ShortDescription
	book.Author = in.Author
	book.Category = in.Category
	book.Price = in.Price
	book.Tags = in.Tags
	book.IsActive = in.IsActive

	if err := s.books.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	if in.Cover != nil && oldCover != "" && oldCover != book.CoverImage.Key {
		s.removeFile(ctx, oldCover)
	}
	if in.PDF != nil && oldPDF != "" && oldPDF != book.PDFFile.Key {
		s.removeFile(ctx, oldPDF)
	}

	s.cache.Invalidate(ctx)
	return book, nil
}

// Delete removes a book and, best effort, its stored files.
func (s *BookService) Delete(ctx context.Context, id string) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}

	if err := s.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.removeFile(ctx, book.CoverImage.Key)
	s.removeFile(ctx, book.PDFFile.Key)

	s.cache.Invalidate(ctx)
	s.events.BookDeleted(ctx, book)
	s.logger.InfoContext(ctx, "book deleted", slog.String("book_id", id))

	return nil
}

// RecordPurchase bumps a book's purchase counter. Used by the manual
// payment flow where the sale is settled outside the gateway.
func (s *BookService) RecordPurchase(ctx context.Context, id string) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}
	if !book.IsActive {
		return apperrors.NotFound("book", id)
	}

	if err := s.books.IncrementPurchaseCount(ctx, id); err != nil {
		return fmt.Errorf("increment purchase count: %w", err)
	}

	s.cache.Invalidate(ctx)
	return nil
}

// ToggleActive flips a book's visibility.
func (s *BookService) ToggleActive(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}

	book.IsActive = !book.IsActive
	if err := s.books.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.cache.Invalidate(ctx)
	return book, nil
}

func (s *BookService) upload(ctx context.Context, prefix, bookID string, f *FileUpload) (*domain.FileRef, error) {
	key := fmt.Sprintf("%s/%s%s", prefix, bookID, path.Ext(f.Name))

	obj, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: f.ContentType,
		Size:        f.Size,
		Body:        f.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", prefix, err)
	}

	return &domain.FileRef{
		Key:          obj.Key,
		URL:          obj.URL,
		OriginalName: f.Name,
		Size:         obj.Size,
	}, nil
}

func (s *BookService) removeFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "delete stored file failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
