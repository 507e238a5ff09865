// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"
)

// User is a record in the user directory.
type User struct {
	ID           string    // Opaque identifier issued by the identity provider.
	Email        string    // Normalized email, unique across the directory.
	Name         string    // Display name.
	PasswordHash string    // Encoded bcrypt hash. Empty for users provisioned without a password.
	CreatedAt    time.Time // Timestamp of when the record was written.
}

// PublicUser is the only representation of a user that leaves the service.
// It never carries credential material.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips credential material from the user.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}

	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// HasPassword reports whether the user can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NormalizeEmail lower-cases and trims an email so lookups and uniqueness are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
