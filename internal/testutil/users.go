package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

// In memory user repository for tests that don't need postgres
type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *UserRepo) CreateUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = user

	return user, nil
}

func (r *UserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

// SetRole changes role the same way an administrator would do it in the store
func (r *UserRepo) SetRole(userID uuid.UUID, role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.users[userID]
	u.Role = role
	r.users[userID] = u
}

// Delete removes user from the store
func (r *UserRepo) Delete(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, userID)
}
