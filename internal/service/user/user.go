package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/models"
	"github.com/nkiryanov/gatekeeper/internal/repository"
	"github.com/nkiryanov/gatekeeper/internal/service/auth"
)

type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

// CreateUser hashes the password and stores the user
// Empty role means models.RoleGuest, empty username means email
func (s *UserService) CreateUser(ctx context.Context, user models.User, password string) (models.User, error) {
	if password == "" {
		return models.User{}, errors.New("password must not be empty")
	}

	if user.Role == "" {
		user.Role = models.RoleGuest
	}
	if !user.Role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q", user.Role)
	}

	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return models.User{}, errors.New("email must not be empty")
	}
	if user.Username == "" {
		user.Username = user.Email
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}
	user.HashedPassword = hash

	created, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return created, nil
}

// Authenticate finds user by email and checks the password
// Returns apperrors.ErrUserNotFound or apperrors.ErrPasswordMismatch, callers decide how much to tell
func (s *UserService) Authenticate(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrPasswordMismatch, err)
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
