package model

import (
	"fmt"
	"time"
)

// User represents an account. Non-admin users start unapproved and cannot
// log in until an admin from their company approves them.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	CompanyID    *string   `json:"company_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleAdmin      = "Admin"
	RoleStocker    = "Stocker"
	RoleRepairTech = "Repair-Tech"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStocker || role == RoleRepairTech
}

// RoleIn reports whether role is a member of the allowed set.
// Roles are not hierarchical; an unknown role never matches.
func RoleIn(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks a plaintext password against the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
