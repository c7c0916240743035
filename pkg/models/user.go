package models

import "time"

// The permission set is closed. Reference rows for these two values are
// seeded at bootstrap and never extended at runtime.
const (
	PermissionAdmin = "admin"
	PermissionUser  = "user"
)

// ValidPermission reports whether p is one of the fixed permission values.
func ValidPermission(p string) bool {
	return p == PermissionAdmin || p == PermissionUser
}

// User is the authoritative command-side record. It is written once and
// never exposed directly to readers; reads go through UserView.
type User struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Email       string    `json:"email" db:"email" binding:"required,email"`
	Description string    `json:"description" db:"description" binding:"required"`
	Permission  string    `json:"permission,omitempty" db:"permission"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Permission is command-side reference data, seeded once at bootstrap.
type Permission struct {
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Name        string `json:"name" binding:"required" example:"John Doe"`
	Email       string `json:"email" binding:"required,email" example:"john@example.com"`
	Description string `json:"description" binding:"required" example:"Backend developer"`
	Permission  string `json:"permission,omitempty" example:"admin"`
}
