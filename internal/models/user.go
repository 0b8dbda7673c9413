package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleGuest Role = "GUEST"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleGuest
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Email          string
	Username       string
	FirstName      string
	LastName       string
	HashedPassword string
	Role           Role
}
