// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"fittrack/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new local account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries the opaque refresh token being redeemed.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutInput carries the bearer access token and, optionally, the single
// refresh token to revoke. When RefreshToken is empty every session of the
// token's subject is torn down.
type LogoutInput struct {
	AccessToken  string
	RefreshToken string
}

// GoogleLoginInput carries the raw Google ID token assertion.
type GoogleLoginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

// --- Output DTOs ---

// AuthOutput returns the authenticated user together with a fresh token pair.
type AuthOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// RefreshOutput returns a fresh access token only; the redeemed refresh
// token stays valid and unchanged.
type RefreshOutput struct {
	User        *entity.User
	AccessToken string
}

// SessionUsecase is the session manager protocol exposed to the HTTP layer:
// Anonymous -> Authenticated(accessToken, refreshToken) -> Anonymous.
type SessionUsecase interface {
	// Register creates a LOCAL account and opens its first session.
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login authenticates email+password and opens a new session. Existing
	// sessions of the same user stay valid.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// Refresh redeems a refresh token for a new access token.
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)

	// Logout blacklists the access token and revokes refresh tokens.
	// Idempotent: signing out twice is not an error.
	Logout(ctx context.Context, input *LogoutInput) error

	// GoogleLogin verifies a federated assertion and resolves it to a local
	// account, creating or linking one as needed.
	GoogleLogin(ctx context.Context, input *GoogleLoginInput) (*AuthOutput, error)

	// Authenticate gates protected requests: it rejects missing, revoked,
	// invalid and orphaned tokens, and returns the token's subject.
	Authenticate(ctx context.Context, accessToken string) (*entity.User, error)

	// CurrentUser loads the profile of an already-authenticated user.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
