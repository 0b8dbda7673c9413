package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/gatekeeper/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with already hashed password
	// If user with email or username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type Storage interface {
	User() UserRepo
}
