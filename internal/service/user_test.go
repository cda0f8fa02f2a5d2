package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/davybookzone/server/internal/domain"
	apperrors "github.com/davybookzone/server/pkg/errors"
)

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newUserService(users *mockUserRepo, tokens *mockTokenIssuer) *UserService {
	return NewUserService(users, tokens, nil, testLogger())
}

func TestRegister(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	var created *domain.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	tokens.On("Generate", mock.Anything).Return("signed-token", nil)

	res, err := svc.Register(context.Background(), &RegisterInput{
		FirstName: "Davy",
		LastName:  "Zone",
		Email:     "davy@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.True(t, res.User.IsActive)

	require.NotNil(t, created)
	assert.NotEqual(t, "secret123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "davy@example.com"))

	_, err := svc.Register(context.Background(), &RegisterInput{
		FirstName: "Davy", LastName: "Zone", Email: "davy@example.com", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
}

func TestLogin(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{
		ID:           "u-1",
		Email:        "davy@example.com",
		PasswordHash: hashFor(t, "secret123"),
		Role:         domain.RoleUser,
		IsActive:     true,
	}

	users.On("GetByEmail", mock.Anything, "davy@example.com").Return(stored, nil)
	tokens.On("Generate", stored).Return("signed-token", nil)
	users.On("UpdateLastLogin", mock.Anything, "u-1", mock.Anything).Return(nil)

	res, err := svc.Login(context.Background(), "davy@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	users.AssertCalled(t, "UpdateLastLogin", mock.Anything, "u-1", mock.Anything)
}

func TestLogin_BadCredentials(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{
		ID:           "u-1",
		Email:        "davy@example.com",
		PasswordHash: hashFor(t, "secret123"),
		IsActive:     true,
	}

	users.On("GetByEmail", mock.Anything, "davy@example.com").Return(stored, nil)
	users.On("GetByEmail", mock.Anything, "unknown@example.com").Return(nil, apperrors.ErrNotFound)

	// Wrong password and unknown email are indistinguishable.
	_, err := svc.Login(context.Background(), "davy@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))

	_, err = svc.Login(context.Background(), "unknown@example.com", "secret123")
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestLogin_DisabledAccount(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{
		ID:           "u-1",
		Email:        "davy@example.com",
		PasswordHash: hashFor(t, "secret123"),
		IsActive:     false,
	}
	users.On("GetByEmail", mock.Anything, "davy@example.com").Return(stored, nil)

	_, err := svc.Login(context.Background(), "davy@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{ID: "u-1", PasswordHash: hashFor(t, "old-pass")}
	users.On("GetByID", mock.Anything, "u-1").Return(stored, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("new-pass")) == nil
	})).Return(nil)

	require.NoError(t, svc.ChangePassword(context.Background(), "u-1", "old-pass", "new-pass"))
	users.AssertExpectations(t)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{ID: "u-1", PasswordHash: hashFor(t, "old-pass")}
	users.On("GetByID", mock.Anything, "u-1").Return(stored, nil)

	err := svc.ChangePassword(context.Background(), "u-1", "not-it", "new-pass")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProfile(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenIssuer)
	svc := newUserService(users, tokens)

	stored := &domain.User{ID: "u-1", FirstName: "Old", LastName: "Name", Email: "old@example.com"}
	users.On("GetByID", mock.Anything, "u-1").Return(stored, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.UpdateProfile(context.Background(), "u-1", &UpdateProfileInput{
		FirstName: "New", LastName: "Name", Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.FirstName)
	assert.Equal(t, "new@example.com", got.Email)
}
