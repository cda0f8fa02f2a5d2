package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/mailer"
	"github.com/davybookzone/server/internal/repository"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(u *domain.User) (string, error)
}

// UserService handles registration, login and profile management.
type UserService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	notifier *mailer.Notifier
	logger   *slog.Logger

	now func() time.Time
}

// NewUserService creates the user service.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, notifier *mailer.Notifier, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "user_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// AuthResult pairs a user with a fresh access token.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and signs the first access token. A welcome
// email goes out fire-and-forget.
func (s *UserService) Register(ctx context.Context, in *RegisterInput) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.notifier.Notify(&mailer.Email{
		To:      user.Email,
		Subject: "Bienvenue sur DavyBookZone",
		Body:    fmt.Sprintf("Bonjour %s,\n\nVotre compte a bien été créé. Bonne lecture !", user.FirstName),
	})

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email and password. Disabled accounts cannot log
// in. Wrong email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is disabled")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "record last login failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the authenticated user's account.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput is the payload for profile updates.
type UpdateProfileInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
}

// UpdateProfile changes the authenticated user's name and email.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in *UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// ChangePassword rotates the authenticated user's password after verifying
// the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}
