package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/gateway"
	"github.com/davybookzone/server/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]*domain.User, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	var users []*domain.User
	if u := args.Get(0); u != nil {
		users = u.([]*domain.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type mockBookRepo struct{ mock.Mock }

func (m *mockBookRepo) Create(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*domain.Book), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookRepo) Update(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookRepo) List(ctx context.Context, filter domain.BookFilter, limit, offset int) ([]*domain.Book, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	var books []*domain.Book
	if b := args.Get(0); b != nil {
		books = b.([]*domain.Book)
	}
	return books, args.Int(1), args.Error(2)
}

func (m *mockBookRepo) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var categories []string
	if c := args.Get(0); c != nil {
		categories = c.([]string)
	}
	return categories, args.Error(1)
}

func (m *mockBookRepo) IncrementViewCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookRepo) IncrementPurchaseCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPurchaseRepo struct{ mock.Mock }

func (m *mockPurchaseRepo) Create(ctx context.Context, p *domain.Purchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPurchaseRepo) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPurchaseRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Purchase, error) {
	args := m.Called(ctx, transactionID)
	if p := args.Get(0); p != nil {
		return p.(*domain.Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPurchaseRepo) UpdateStatus(ctx context.Context, transactionID, status string, purchasedAt *time.Time) (bool, error) {
	args := m.Called(ctx, transactionID, status, purchasedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockPurchaseRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	args := m.Called(ctx, userID)
	var purchases []*domain.Purchase
	if p := args.Get(0); p != nil {
		purchases = p.([]*domain.Purchase)
	}
	return purchases, args.Error(1)
}

func (m *mockPurchaseRepo) ListAll(ctx context.Context) ([]*domain.Purchase, error) {
	args := m.Called(ctx)
	var purchases []*domain.Purchase
	if p := args.Get(0); p != nil {
		purchases = p.([]*domain.Purchase)
	}
	return purchases, args.Error(1)
}

type mockMessageRepo struct{ mock.Mock }

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageRepo) List(ctx context.Context, isRead *bool, limit, offset int) ([]*domain.Message, int, error) {
	args := m.Called(ctx, isRead, limit, offset)
	var messages []*domain.Message
	if msgs := args.Get(0); msgs != nil {
		messages = msgs.([]*domain.Message)
	}
	return messages, args.Int(1), args.Error(2)
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id, readBy string, at time.Time) (*domain.Message, error) {
	args := m.Called(ctx, id, readBy, at)
	if msg := args.Get(0); msg != nil {
		return msg.(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageRepo) SetResponse(ctx context.Context, id string, resp *domain.MessageResponse) error {
	return m.Called(ctx, id, resp).Error(0)
}

type mockSettingsRepo struct{ mock.Mock }

func (m *mockSettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*domain.Settings), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettingsRepo) Create(ctx context.Context, s *domain.Settings) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	return m.Called(ctx, s).Error(0)
}

type mockStatsRepo struct{ mock.Mock }

func (m *mockStatsRepo) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*domain.DashboardStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStatsRepo) PopularBooks(ctx context.Context, limit int) ([]*domain.PopularBook, error) {
	args := m.Called(ctx, limit)
	var books []*domain.PopularBook
	if b := args.Get(0); b != nil {
		books = b.([]*domain.PopularBook)
	}
	return books, args.Error(1)
}

func (m *mockStatsRepo) RecentUsers(ctx context.Context, limit int) ([]*domain.RecentUser, error) {
	args := m.Called(ctx, limit)
	var users []*domain.RecentUser
	if u := args.Get(0); u != nil {
		users = u.([]*domain.RecentUser)
	}
	return users, args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateTransaction(ctx context.Context, in *gateway.CreateTransactionInput) (*gateway.CreateTransactionResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*gateway.CreateTransactionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CheckStatus(ctx context.Context, transactionID string) (*gateway.StatusResult, error) {
	args := m.Called(ctx, transactionID)
	if r := args.Get(0); r != nil {
		return r.(*gateway.StatusResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTokenIssuer struct{ mock.Mock }

func (m *mockTokenIssuer) Generate(u *domain.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Upload(ctx context.Context, in *storage.UploadInput) (*storage.Object, error) {
	args := m.Called(ctx, in)
	if o := args.Get(0); o != nil {
		return o.(*storage.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStorage) GetURL(key string) string {
	return m.Called(key).String(0)
}
