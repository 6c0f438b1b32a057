// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	// ProviderLocal marks accounts created with an email and password.
	ProviderLocal Provider = "LOCAL"
	// ProviderGoogle marks accounts created or linked through Google Sign-In.
	ProviderGoogle Provider = "GOOGLE"
)

// User is the core identity record. An account is created either by local
// registration or by the first federated login, and may later carry both
// credential kinds once a Google identity is linked onto a local account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string    // Globally unique login identifier.
	PasswordHash string    // bcrypt hash; empty for federated-only accounts.
	Provider     Provider  // LOCAL or GOOGLE.
	GoogleID     string    // Google 'sub' claim; globally unique when set, implies Provider == GOOGLE.
	ImageURL     string    // Profile picture, refreshed from the federated assertion.
	Verified     bool      // True once the email is verified (always true for Google accounts).
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasLocalPassword reports whether the account can authenticate with a password.
func (u *User) HasLocalPassword() bool {
	return u.PasswordHash != ""
}
