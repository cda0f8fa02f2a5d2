package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davybookzone/server/internal/cache"
	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/storage"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

func newBookService(books *mockBookRepo, store *mockStorage, bookCache *cache.BookCache) *BookService {
	return NewBookService(books, store, bookCache, nil, testLogger())
}

func redisCache(t *testing.T) *cache.BookCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewBookCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBookList_PublicOnlySeesActive(t *testing.T) {
	books := new(mockBookRepo)
	svc := newBookService(books, new(mockStorage), nil)

	books.On("List", mock.Anything, mock.MatchedBy(func(f domain.BookFilter) bool {
		return f.ActiveOnly
	}), 10, 0).Return([]*domain.Book{{ID: "b-1", IsActive: true}}, 1, nil)

	got, total, err := svc.List(context.Background(), domain.BookFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
}

func TestBookList_ServesFromCache(t *testing.T) {
	books := new(mockBookRepo)
	svc := newBookService(books, new(mockStorage), redisCache(t))

	books.On("List", mock.Anything, mock.Anything, 10, 0).
		Return([]*domain.Book{{ID: "b-1", Title: "Les Richesses", IsActive: true}}, 1, nil).
		Once()

	for i := 0; i < 3; i++ {
		got, total, err := svc.List(context.Background(), domain.BookFilter{Category: "finance"}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, got, 1)
		assert.Equal(t, "Les Richesses", got[0].Title)
	}

	// The repository was only hit once; the other reads came from Redis.
	books.AssertNumberOfCalls(t, "List", 1)
}

func TestBookGet_HidesInactiveFromPublic(t *testing.T) {
	books := new(mockBookRepo)
	svc := newBookService(books, new(mockStorage), nil)

	inactive := &domain.Book{ID: "b-1", IsActive: false}
	books.On("GetByID", mock.Anything, "b-1").Return(inactive, nil)
	books.On("IncrementViewCount", mock.Anything, "b-1").Return(nil)

	_, err := svc.Get(context.Background(), "b-1", false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := svc.Get(context.Background(), "b-1", true)
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)
}

func TestBookCreate(t *testing.T) {
	books := new(mockBookRepo)
	store := new(mockStorage)
	svc := newBookService(books, store, redisCache(t))

	store.On("Upload", mock.Anything, mock.MatchedBy(func(in *storage.UploadInput) bool {
		return strings.HasPrefix(in.Key, "covers/") && strings.HasSuffix(in.Key, ".jpg")
	})).Return(&storage.Object{Key: "covers/x.jpg", URL: "http://files/covers/x.jpg", Size: 10}, nil)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in *storage.UploadInput) bool {
		return strings.HasPrefix(in.Key, "books/") && strings.HasSuffix(in.Key, ".pdf")
	})).Return(&storage.Object{Key: "books/x.pdf", URL: "http://files/books/x.pdf", Size: 20}, nil)
	books.On("Create", mock.Anything, mock.AnythingOfType("*domain.Book")).Return(nil)

	got, err := svc.Create(context.Background(), &CreateBookInput{
		Title:    "Les Richesses",
		Author:   "T. Dupont",
		Category: domain.CategoryFinance,
		Price:    5000,
		AddedBy:  "admin-1",
		Cover:    &FileUpload{Name: "cover.jpg", ContentType: "image/jpeg", Body: strings.NewReader("img")},
		PDF:      &FileUpload{Name: "book.pdf", ContentType: "application/pdf", Body: strings.NewReader("pdf")},
	})
	require.NoError(t, err)

	assert.True(t, got.IsActive)
	assert.Equal(t, "covers/x.jpg", got.CoverImage.Key)
	assert.Equal(t, "cover.jpg", got.CoverImage.OriginalName)
	assert.Equal(t, "books/x.pdf", got.PDFFile.Key)

	books.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestBookCreate_RejectsBadInput(t *testing.T) {
	books := new(mockBookRepo)
	svc := newBookService(books, new(mockStorage), nil)

	_, err := svc.Create(context.Background(), &CreateBookInput{Category: "poetry", Price: 100})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(context.Background(), &CreateBookInput{Category: domain.CategoryOther, Price: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(context.Background(), &CreateBookInput{Category: domain.CategoryOther, Price: 100})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookDelete_RemovesStoredFiles(t *testing.T) {
	books := new(mockBookRepo)
	store := new(mockStorage)
	svc := newBookService(books, store, redisCache(t))

	stored := &domain.Book{
		ID:         "b-1",
		CoverImage: domain.FileRef{Key: "covers/b-1.jpg"},
		PDFFile:    domain.FileRef{Key: "books/b-1.pdf"},
	}
	books.On("GetByID", mock.Anything, "b-1").Return(stored, nil)
	books.On("Delete", mock.Anything, "b-1").Return(nil)
	store.On("Delete", mock.Anything, "covers/b-1.jpg").Return(nil)
	store.On("Delete", mock.Anything, "books/b-1.pdf").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "b-1"))
	store.AssertExpectations(t)
}

func TestBookCacheInvalidatedOnWrite(t *testing.T) {
	books := new(mockBookRepo)
	store := new(mockStorage)
	svc := newBookService(books, store, redisCache(t))

	books.On("List", mock.Anything, mock.Anything, 10, 0).
		Return([]*domain.Book{{ID: "b-1", IsActive: true}}, 1, nil).Twice()

	_, _, err := svc.List(context.Background(), domain.BookFilter{}, 10, 0)
	require.NoError(t, err)

	// A delete flushes the cache, so the next list goes back to the database.
	stored := &domain.Book{ID: "b-2"}
	books.On("GetByID", mock.Anything, "b-2").Return(stored, nil)
	books.On("Delete", mock.Anything, "b-2").Return(nil)
	require.NoError(t, svc.Delete(context.Background(), "b-2"))

	_, _, err = svc.List(context.Background(), domain.BookFilter{}, 10, 0)
	require.NoError(t, err)

	books.AssertNumberOfCalls(t, "List", 2)
}

func TestToggleActive(t *testing.T) {
	books := new(mockBookRepo)
	svc := newBookService(books, new(mockStorage), nil)

	stored := &domain.Book{ID: "b-1", IsActive: true}
	books.On("GetByID", mock.Anything, "b-1").Return(stored, nil)
	books.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Book) bool {
		return !b.IsActive
	})).Return(nil)

	got, err := svc.ToggleActive(context.Background(), "b-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
