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

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	db database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(db database.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

const bookColumns = `id, title, description, short_description, author, category, price, cover_image, pdf_file, is_active, purchase_count, view_count, tags, added_by, created_at, updated_at`

// Create inserts a new book into the catalog.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	coverJSON, err := json.Marshal(b.CoverImage)
	if err != nil {
		return fmt.Errorf("marshal cover image: %w", err)
	}
	pdfJSON, err := json.Marshal(b.PDFFile)
	if err != nil {
		return fmt.Errorf("marshal pdf file: %w", err)
	}

	query := `
		INSERT INTO books (id, title, description, short_description, author, category, price, cover_image, pdf_file, is_active, purchase_count, view_count, tags, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Description,
		b.ShortDescription,
		b.Author,
		b.Category,
		b.Price,
		coverJSON,
		pdfJSON,
		b.IsActive,
		b.PurchaseCount,
		b.ViewCount,
		b.Tags,
		b.AddedBy,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var b domain.Book
	var coverJSON, pdfJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Description, &b.ShortDescription, &b.Author,
		&b.Category, &b.Price, &coverJSON, &pdfJSON, &b.IsActive,
		&b.PurchaseCount, &b.ViewCount, &b.Tags, &b.AddedBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	if err := json.Unmarshal(coverJSON, &b.CoverImage); err != nil {
		return nil, fmt.Errorf("unmarshal cover image: %w", err)
	}
	if err := json.Unmarshal(pdfJSON, &b.PDFFile); err != nil {
		return nil, fmt.Errorf("unmarshal pdf file: %w", err)
	}

	return &b, nil
}

// Update modifies an existing book.
func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	coverJSON, err := json.Marshal(b.CoverImage)
	if err != nil {
		return fmt.Errorf("marshal cover image: %w", err)
	}
	pdfJSON, err := json.Marshal(b.PDFFile)
	if err != nil {
		return fmt.Errorf("marshal pdf file: %w", err)
	}

	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET title = $1, description = $2, short_description = $3, author = $4,
		    category = $5, price = $6, cover_image = $7, pdf_file = $8,
		    is_active = $9, tags = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		b.Title,
		b.Description,
		b.ShortDescription,
		b.Author,
		b.Category,
		b.Price,
		coverJSON,
		pdfJSON,
		b.IsActive,
		b.Tags,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", b.ID)
	}

	return nil
}

// Delete removes a book from the catalog.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}

	return nil
}

// List returns books matching the filter with the total count. Sorting is
// restricted to a fixed set of columns to keep the query injection-safe.
func (r *BookRepository) List(ctx context.Context, filter domain.BookFilter, limit, offset int) ([]*domain.Book, int, error) {
	var conditions []string
	var args []any

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	} else if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	orderBy := sortColumn(filter.SortBy)
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM books%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		bookColumns, where, orderBy, direction, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		var b domain.Book
		var coverJSON, pdfJSON []byte

		if err := rows.Scan(
			&b.ID, &b.Title, &b.Description, &b.ShortDescription, &b.Author,
			&b.Category, &b.Price, &coverJSON, &pdfJSON, &b.IsActive,
			&b.PurchaseCount, &b.ViewCount, &b.Tags, &b.AddedBy,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}

		if err := json.Unmarshal(coverJSON, &b.CoverImage); err != nil {
			return nil, 0, fmt.Errorf("unmarshal cover image: %w", err)
		}
		if err := json.Unmarshal(pdfJSON, &b.PDFFile); err != nil {
			return nil, 0, fmt.Errorf("unmarshal pdf file: %w", err)
		}

		books = append(books, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}

	return books, total, nil
}

// sortColumn maps a requested sort key to a whitelisted column name.
func sortColumn(key string) string {
	switch key {
	case "price":
		return "price"
	case "title":
		return "title"
	case "purchase_count", "popular":
		return "purchase_count"
	case "view_count":
		return "view_count"
	default:
		return "created_at"
	}
}

// Categories returns the distinct categories of active books.
func (r *BookRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM books WHERE is_active = TRUE ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// IncrementViewCount bumps a book's view counter.
func (r *BookRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE books SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// IncrementPurchaseCount bumps a book's purchase counter.
func (r *BookRepository) IncrementPurchaseCount(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE books SET purchase_count = purchase_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment purchase count: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}

	return nil
}
