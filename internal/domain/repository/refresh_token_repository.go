package repository

import (
	"context"

	"fittrack/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for refresh token persistence.
var (
	// ErrRefreshTokenNotFound is returned when no record matches the token digest.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrRefreshTokenExpired is returned when a matching record has passed its expiry.
	ErrRefreshTokenExpired = errors.New("refresh token has expired")
)

// RefreshTokenRepository manages the persistent records backing long-lived
// sessions. Tokens are addressed by the SHA-256 digest of their raw value.
type RefreshTokenRepository interface {
	// Create persists a new refresh token, representing a user session.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// Redeem looks up a token by its digest. An expired record is deleted on
	// the spot (lazy expiry) and reported as ErrRefreshTokenExpired; a live
	// record is returned unmutated.
	Redeem(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)

	// DeleteByHash removes a single token, ending that session.
	// Returns ErrRefreshTokenNotFound when nothing was deleted.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteByUserID removes every refresh token owned by the user,
	// implementing "logout from all devices".
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes all expired refresh tokens. Complements lazy
	// expiry for records that are never redeemed again.
	DeleteExpired(ctx context.Context) error
}
