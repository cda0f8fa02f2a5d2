package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/pkg/database"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// PurchaseRepository implements repository.PurchaseRepository using PostgreSQL.
type PurchaseRepository struct {
	db database.DBTX
}

// NewPurchaseRepository creates a new PostgreSQL-backed purchase ledger.
func NewPurchaseRepository(db database.DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `id, user_id, book_id, price, transaction_id, status, purchased_at, customer_info, created_at, updated_at`

// Create inserts a new purchase into the ledger. A transaction_id collision
// surfaces as a conflict error; the existing row is never overwritten.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	customerJSON, err := json.Marshal(p.CustomerInfo)
	if err != nil {
		return fmt.Errorf("marshal customer info: %w", err)
	}

	query := `
		INSERT INTO purchases (id, user_id, book_id, price, transaction_id, status, purchased_at, customer_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.BookID,
		p.Price,
		p.TransactionID,
		p.Status,
		p.PurchasedAt,
		customerJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("TRANSACTION_EXISTS", fmt.Sprintf("transaction %s already recorded", p.TransactionID))
		}
		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// GetByID retrieves a purchase by its ID.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	return r.scanPurchase(ctx, query, id)
}

// GetByTransactionID retrieves a purchase by its provider-facing transaction ID.
func (r *PurchaseRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE transaction_id = $1`
	return r.scanPurchase(ctx, query, transactionID)
}

// UpdateStatus moves a purchase out of pending. Rows already in a terminal
// status are left untouched; the returned bool reports whether the row changed.
func (r *PurchaseRepository) UpdateStatus(ctx context.Context, transactionID, status string, purchasedAt *time.Time) (bool, error) {
	query := `
		UPDATE purchases
		SET status = $1, purchased_at = COALESCE($2, purchased_at), updated_at = $3
		WHERE transaction_id = $4 AND status = 'pending'`

	ct, err := r.db.Exec(ctx, query, status, purchasedAt, time.Now().UTC(), transactionID)
	if err != nil {
		return false, fmt.Errorf("update purchase status: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// ListByUser returns all purchases for a buyer, most recent payment first.
// Pending purchases (no purchased_at yet) sort after completed ones.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1
		ORDER BY purchased_at DESC NULLS LAST, created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases by user: %w", err)
	}
	defer rows.Close()

	return scanPurchaseRows(rows)
}

// ListAll returns every purchase in the ledger, most recent payment first.
func (r *PurchaseRepository) ListAll(ctx context.Context) ([]*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		ORDER BY purchased_at DESC NULLS LAST, created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	return scanPurchaseRows(rows)
}

func (r *PurchaseRepository) scanPurchase(ctx context.Context, query string, args ...any) (*domain.Purchase, error) {
	var p domain.Purchase
	var customerJSON []byte

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.UserID,
		&p.BookID,
		&p.Price,
		&p.TransactionID,
		&p.Status,
		&p.PurchasedAt,
		&customerJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}

	if err := json.Unmarshal(customerJSON, &p.CustomerInfo); err != nil {
		return nil, fmt.Errorf("unmarshal customer info: %w", err)
	}

	return &p, nil
}

func scanPurchaseRows(rows pgx.Rows) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		var customerJSON []byte

		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.BookID,
			&p.Price,
			&p.TransactionID,
			&p.Status,
			&p.PurchasedAt,
			&customerJSON,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}

		if err := json.Unmarshal(customerJSON, &p.CustomerInfo); err != nil {
			return nil, fmt.Errorf("unmarshal customer info: %w", err)
		}

		purchases = append(purchases, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
