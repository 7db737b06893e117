package model

import (
	"fmt"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleStaff   = "staff"
	RoleStudent = "student"
)

// Password length bounds. MaxPasswordBytes is the bcrypt input limit.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleStaff:   2,
		RoleStudent: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}
