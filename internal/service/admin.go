package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/repository"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// AdminService backs the admin console: dashboard aggregates and user
// management. Admins cannot modify or delete their own account through it.
type AdminService struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	logger *slog.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(users repository.UserRepository, stats repository.StatsRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		users:  users,
		stats:  stats,
		logger: logger.With(slog.String("component", "admin_service")),
	}
}

// Dashboard is the admin landing-page payload.
type Dashboard struct {
	Stats        *domain.DashboardStats `json:"stats"`
	PopularBooks []*domain.PopularBook  `json:"popular_books"`
	RecentUsers  []*domain.RecentUser   `json:"recent_users"`
}

// GetDashboard assembles the dashboard aggregates.
func (s *AdminService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.stats.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	popular, err := s.stats.PopularBooks(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("popular books: %w", err)
	}

	recent, err := s.stats.RecentUsers(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}

	return &Dashboard{Stats: stats, PopularBooks: popular, RecentUsers: recent}, nil
}

// ListUsers returns accounts matching the filter, newest first.
func (s *AdminService) ListUsers(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]*domain.User, int, error) {
	users, total, err := s.users.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// AdminUpdateUserInput is the payload for admin user edits.
type AdminUpdateUserInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=user admin"`
	IsActive  bool   `json:"is_active"`
}

// UpdateUser edits another user's account. Self-modification is refused so
// an admin cannot lock themselves out or drop their own role.
func (s *AdminService) UpdateUser(ctx context.Context, adminID, userID string, in *AdminUpdateUserInput) (*domain.User, error) {
	if adminID == userID {
		return nil, apperrors.Forbidden("cannot modify your own account")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.Role = in.Role
	user.IsActive = in.IsActive

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated by admin",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
	)
	return user, nil
}

// DeleteUser removes another user's account. Self-deletion is refused.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if adminID == userID {
		return apperrors.Forbidden("cannot delete your own account")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
	)
	return nil
}

// ToggleUserActive flips another user's is_active flag.
func (s *AdminService) ToggleUserActive(ctx context.Context, adminID, userID string) (*domain.User, error) {
	if adminID == userID {
		return nil, apperrors.Forbidden("cannot modify your own account")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}
