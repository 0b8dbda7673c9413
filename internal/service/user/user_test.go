package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/models"
	"github.com/nkiryanov/gatekeeper/internal/service/auth"
	"github.com/nkiryanov/gatekeeper/internal/testutil"
)

func TestUser(t *testing.T) {
	t.Parallel()

	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}
	newService := func() *UserService {
		return NewService(hasher, testutil.NewUserRepo())
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			s := newService()

			user, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com", Role: models.RoleAdmin}, "password123")

			require.NoError(t, err, "creating new user should be ok")
			require.NotEmpty(t, user.ID, "user ID should not be empty")
			require.Equal(t, "admin@example.com", user.Email)
			require.Equal(t, "admin@example.com", user.Username, "username defaults to email")
			require.Equal(t, models.RoleAdmin, user.Role)
			require.NotEqual(t, "password123", user.HashedPassword, "password should be hashed")
			require.NoError(t, hasher.Compare(user.HashedPassword, "password123"))
		})

		t.Run("guest by default", func(t *testing.T) {
			s := newService()

			user, err := s.CreateUser(t.Context(), models.User{Email: "guest@example.com"}, "password123")

			require.NoError(t, err)
			require.Equal(t, models.RoleGuest, user.Role)
		})

		t.Run("unknown role fail", func(t *testing.T) {
			s := newService()

			_, err := s.CreateUser(t.Context(), models.User{Email: "root@example.com", Role: "ROOT"}, "password123")

			require.Error(t, err)
		})

		t.Run("empty password fail", func(t *testing.T) {
			s := newService()

			_, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com"}, "")

			require.Error(t, err, "creating user with empty password should fail")
		})

		t.Run("create duplicate user fail", func(t *testing.T) {
			s := newService()
			_, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com"}, "password123")
			require.NoError(t, err, "first user creation should succeed")

			_, err = s.CreateUser(t.Context(), models.User{Email: "admin@example.com"}, "different_password")

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("authenticate ok", func(t *testing.T) {
			s := newService()
			created, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com", Role: models.RoleAdmin}, "password123")
			require.NoError(t, err)

			user, err := s.Authenticate(t.Context(), "admin@example.com", "password123")

			require.NoError(t, err, "correct credentials should succeed")
			require.Equal(t, created.ID, user.ID)
			require.Equal(t, models.RoleAdmin, user.Role)
		})

		t.Run("invalid password fail", func(t *testing.T) {
			s := newService()
			_, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com"}, "password123")
			require.NoError(t, err)

			_, err = s.Authenticate(t.Context(), "admin@example.com", "wrong-password")

			require.ErrorIs(t, err, apperrors.ErrPasswordMismatch)
			require.NotErrorIs(t, err, apperrors.ErrUserNotFound)
		})

		t.Run("not existed user fail", func(t *testing.T) {
			s := newService()

			_, err := s.Authenticate(t.Context(), "nobody@example.com", "password123")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("GetUserByID", func(t *testing.T) {
		t.Run("existed ok", func(t *testing.T) {
			s := newService()
			created, err := s.CreateUser(t.Context(), models.User{Email: "admin@example.com"}, "password123")
			require.NoError(t, err)

			got, err := s.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			require.Equal(t, created, got)
		})

		t.Run("not existed fail", func(t *testing.T) {
			s := newService()

			_, err := s.GetUserByID(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
