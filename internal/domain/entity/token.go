package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a long-lived, authorized user session.
// The raw opaque value is handed to the client once and only its SHA-256
// digest is kept at rest, so a store compromise does not yield usable
// bearer credentials.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string    // SHA-256 digest of the raw opaque token, used as the lookup key.
	ExpiresAt time.Time // Absolute expiry, 7 days from issuance.
	CreatedAt time.Time
}

// Expired reports whether the session has passed its absolute expiry.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
