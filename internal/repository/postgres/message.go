package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/pkg/database"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL.
type MessageRepository struct {
	db database.DBTX
}

// NewMessageRepository creates a new PostgreSQL-backed message repository.
func NewMessageRepository(db database.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, sender, email, subject, content, is_read, read_at, read_by, response, priority, created_at, updated_at`

// Create inserts a new contact message.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender, email, subject, content, is_read, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		m.ID,
		m.From,
		m.Email,
		m.Subject,
		m.Content,
		m.IsRead,
		m.Priority,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by its ID.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var m domain.Message
	var readBy *string
	var responseJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.From, &m.Email, &m.Subject, &m.Content,
		&m.IsRead, &m.ReadAt, &readBy, &responseJSON, &m.Priority,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}

	if readBy != nil {
		m.ReadBy = *readBy
	}
	if len(responseJSON) > 0 {
		m.Response = &domain.MessageResponse{}
		if err := json.Unmarshal(responseJSON, m.Response); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return &m, nil
}

// List returns messages, newest first, optionally filtered by read status.
func (r *MessageRepository) List(ctx context.Context, isRead *bool, limit, offset int) ([]*domain.Message, int, error) {
	where := ""
	var args []any

	if isRead != nil {
		args = append(args, *isRead)
		where = " WHERE is_read = $1"
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM messages%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		messageColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		var readBy *string
		var responseJSON []byte

		if err := rows.Scan(
			&m.ID, &m.From, &m.Email, &m.Subject, &m.Content,
			&m.IsRead, &m.ReadAt, &readBy, &responseJSON, &m.Priority,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan message row: %w", err)
		}

		if readBy != nil {
			m.ReadBy = *readBy
		}
		if len(responseJSON) > 0 {
			m.Response = &domain.MessageResponse{}
			if err := json.Unmarshal(responseJSON, m.Response); err != nil {
				return nil, 0, fmt.Errorf("unmarshal response: %w", err)
			}
		}

		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, total, nil
}

// MarkRead flags a message as read and returns the updated message.
func (r *MessageRepository) MarkRead(ctx context.Context, id, readBy string, at time.Time) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = $1, read_by = $2, updated_at = $1
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, at, readBy, id)
	if err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("message", id)
	}

	return r.GetByID(ctx, id)
}

// SetResponse attaches an admin reply to a message and marks it read.
func (r *MessageRepository) SetResponse(ctx context.Context, id string, resp *domain.MessageResponse) error {
	responseJSON, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	query := `
		UPDATE messages
		SET response = $1, is_read = TRUE, read_at = $2, read_by = $3, updated_at = $2
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, responseJSON, resp.SentAt, resp.SentBy, id)
	if err != nil {
		return fmt.Errorf("set message response: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("message", id)
	}

	return nil
}
