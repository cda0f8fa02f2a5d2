package postgres

import (
	"context"
	"fmt"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/pkg/database"
)

// StatsRepository implements repository.StatsRepository using PostgreSQL.
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new PostgreSQL-backed stats repository.
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// DashboardStats computes the admin dashboard counters in a single query.
func (r *StatsRepository) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM books WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM messages WHERE is_read = FALSE),
			(SELECT COALESCE(SUM(purchase_count), 0) FROM books),
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(*) FROM books WHERE created_at >= NOW() - INTERVAL '30 days')`

	var s domain.DashboardStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalUsers,
		&s.ActiveUsers,
		&s.TotalBooks,
		&s.ActiveBooks,
		&s.UnreadMessages,
		&s.TotalPurchases,
		&s.NewUsersLast30Days,
		&s.NewBooksLast30Days,
	)
	if err != nil {
		return nil, fmt.Errorf("scan dashboard stats: %w", err)
	}

	return &s, nil
}

// PopularBooks returns the best-selling active books.
func (r *StatsRepository) PopularBooks(ctx context.Context, limit int) ([]*domain.PopularBook, error) {
	query := `
		SELECT id, title, author, purchase_count, price
		FROM books
		WHERE is_active = TRUE
		ORDER BY purchase_count DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular books: %w", err)
	}
	defer rows.Close()

	var books []*domain.PopularBook
	for rows.Next() {
		var b domain.PopularBook
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.PurchaseCount, &b.Price); err != nil {
			return nil, fmt.Errorf("scan popular book: %w", err)
		}
		books = append(books, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular books: %w", err)
	}

	return books, nil
}

// RecentUsers returns the most recently registered accounts.
func (r *StatsRepository) RecentUsers(ctx context.Context, limit int) ([]*domain.RecentUser, error) {
	query := `
		SELECT id, first_name, last_name, email, is_active, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent users: %w", err)
	}
	defer rows.Close()

	var users []*domain.RecentUser
	for rows.Next() {
		var u domain.RecentUser
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent users: %w", err)
	}

	return users, nil
}
