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

// SettingsRepository implements repository.SettingsRepository using PostgreSQL.
// The settings table holds at most one row.
type SettingsRepository struct {
	db database.DBTX
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings document, or ErrNotFound if none exists yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT id, sections, contacts, site_info, email_settings, payment_settings, created_at, updated_at
		FROM settings
		LIMIT 1`

	var s domain.Settings
	var sectionsJSON, contactsJSON, siteInfoJSON, emailJSON, paymentJSON []byte

	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID, &sectionsJSON, &contactsJSON, &siteInfoJSON, &emailJSON, &paymentJSON,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	for _, f := range []struct {
		data []byte
		dst  any
	}{
		{sectionsJSON, &s.Sections},
		{contactsJSON, &s.Contacts},
		{siteInfoJSON, &s.SiteInfo},
		{emailJSON, &s.EmailSettings},
		{paymentJSON, &s.PaymentSettings},
	} {
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	return &s, nil
}

// Create inserts the settings document.
func (r *SettingsRepository) Create(ctx context.Context, s *domain.Settings) error {
	args, err := settingsArgs(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settings (id, sections, contacts, site_info, email_settings, payment_settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query, append([]any{s.ID}, append(args, s.CreatedAt, s.UpdatedAt)...)...)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}

	return nil
}

// Update replaces the settings document.
func (r *SettingsRepository) Update(ctx context.Context, s *domain.Settings) error {
	args, err := settingsArgs(s)
	if err != nil {
		return err
	}

	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE settings
		SET sections = $1, contacts = $2, site_info = $3, email_settings = $4,
		    payment_settings = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query, append(args, s.UpdatedAt, s.ID)...)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("settings", s.ID)
	}

	return nil
}

func settingsArgs(s *domain.Settings) ([]any, error) {
	sectionsJSON, err := json.Marshal(s.Sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	contactsJSON, err := json.Marshal(s.Contacts)
	if err != nil {
		return nil, fmt.Errorf("marshal contacts: %w", err)
	}
	siteInfoJSON, err := json.Marshal(s.SiteInfo)
	if err != nil {
		return nil, fmt.Errorf("marshal site info: %w", err)
	}
	emailJSON, err := json.Marshal(s.EmailSettings)
	if err != nil {
		return nil, fmt.Errorf("marshal email settings: %w", err)
	}
	paymentJSON, err := json.Marshal(s.PaymentSettings)
	if err != nil {
		return nil, fmt.Errorf("marshal payment settings: %w", err)
	}

	return []any{sectionsJSON, contactsJSON, siteInfoJSON, emailJSON, paymentJSON}, nil
}
