// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user. It is embedded in access tokens
// and re-checked against the stored value on every refresh.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID
	UserName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
