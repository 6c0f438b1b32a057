package service

import (
	"time"

	"github.com/google/uuid"
)

// Claims carries the verified (or merely decoded) content of an access token.
type Claims struct {
	UserID    uuid.UUID
	Type      string
	ExpiresAt time.Time
}

// TokenService is the codec for short-lived access tokens and the generator
// for long-lived opaque refresh tokens. Access tokens are self-contained and
// verified without a store lookup; revocation is layered on top by the
// RevocationRegistry, not here.
type TokenService interface {
	// GenerateAccessToken creates a signed access token asserting the user's
	// identity, valid for the access TTL (15 minutes).
	GenerateAccessToken(userID uuid.UUID) (string, error)

	// ValidateAccessToken checks signature and expiry and returns the claims.
	ValidateAccessToken(tokenString string) (*Claims, error)

	// DecodeUnverified extracts claims without checking the signature. Used
	// where a token must be inspected even when it would not verify, e.g.
	// reading the expiry deadline while blacklisting.
	DecodeUnverified(tokenString string) (*Claims, error)

	// NewRefreshToken generates a cryptographically random opaque token
	// with at least 256 bits of entropy.
	NewRefreshToken() (string, error)

	// HashToken returns the hex-encoded SHA-256 digest used as the refresh
	// token's at-rest lookup key.
	HashToken(raw string) string

	// RefreshTokenTTL returns the configured refresh token lifetime.
	RefreshTokenTTL() time.Duration
}
