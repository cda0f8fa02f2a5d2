package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/repository"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// SettingsService manages the single site-settings document. The document
// is created lazily with defaults on first access.
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *slog.Logger

	now func() time.Time
}

// NewSettingsService creates the settings service.
func NewSettingsService(settings repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		logger:   logger.With(slog.String("component", "settings_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the settings document, creating the default one if none
// exists yet.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	settings = domain.DefaultSettings()
	settings.ID = uuid.New().String()
	settings.CreatedAt = s.now()
	settings.UpdatedAt = settings.CreatedAt

	if err := s.settings.Create(ctx, settings); err != nil {
		return nil, fmt.Errorf("create default settings: %w", err)
	}

	s.logger.InfoContext(ctx, "default settings created")
	return settings, nil
}

// UpdateSettingsInput is the payload for settings updates.
type UpdateSettingsInput struct {
	Sections        domain.SectionToggles  `json:"sections"`
	Contacts        domain.ContactLinks    `json:"contacts"`
	SiteInfo        domain.SiteInfo        `json:"site_info"`
	EmailSettings   domain.EmailSettings   `json:"email_settings"`
	PaymentSettings domain.PaymentSettings `json:"payment_settings"`
}

// Update replaces the settings document, creating it first if needed.
func (s *SettingsService) Update(ctx context.Context, in *UpdateSettingsInput) (*domain.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.Sections = in.Sections
	settings.Contacts = in.Contacts
	settings.SiteInfo = in.SiteInfo
	settings.EmailSettings = in.EmailSettings
	settings.PaymentSettings = in.PaymentSettings

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	return settings, nil
}
