// Package repository defines the persistence interfaces implemented by the
// postgres sub-package and mocked in service tests.
package repository

import (
	"context"
	"time"

	"github.com/davybookzone/server/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]*domain.User, int, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// BookRepository persists the book catalog.
type BookRepository interface {
	Create(ctx context.Context, b *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	Update(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.BookFilter, limit, offset int) ([]*domain.Book, int, error)
	Categories(ctx context.Context) ([]string, error)
	IncrementViewCount(ctx context.Context, id string) error
	IncrementPurchaseCount(ctx context.Context, id string) error
}

// PurchaseRepository is the purchase ledger. The transaction_id column
// carries a unique constraint; Create surfaces a conflict error on collision.
type PurchaseRepository interface {
	Create(ctx context.Context, p *domain.Purchase) error
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Purchase, error)
	// UpdateStatus moves a purchase out of pending. The update is guarded
	// with WHERE status = 'pending' so terminal rows are never rewritten;
	// the returned bool reports whether a row actually changed.
	UpdateStatus(ctx context.Context, transactionID, status string, purchasedAt *time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error)
	ListAll(ctx context.Context) ([]*domain.Purchase, error)
}

// MessageRepository persists contact-form messages.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	List(ctx context.Context, isRead *bool, limit, offset int) ([]*domain.Message, int, error)
	MarkRead(ctx context.Context, id, readBy string, at time.Time) (*domain.Message, error)
	SetResponse(ctx context.Context, id string, resp *domain.MessageResponse) error
}

// SettingsRepository persists the single site-settings document.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Create(ctx context.Context, s *domain.Settings) error
	Update(ctx context.Context, s *domain.Settings) error
}

// StatsRepository computes admin dashboard aggregates.
type StatsRepository interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	PopularBooks(ctx context.Context, limit int) ([]*domain.PopularBook, error)
	RecentUsers(ctx context.Context, limit int) ([]*domain.RecentUser, error)
}
