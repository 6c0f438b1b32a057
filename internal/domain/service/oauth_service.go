package service

import "context"

// OAuthUser is the identity projection extracted from a verified federated assertion.
type OAuthUser struct {
	ID            string // Provider subject identifier (Google 'sub' claim).
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// OAuthService verifies externally issued identity assertions.
type OAuthService interface {
	// VerifyIDToken validates the raw ID token against the configured
	// audience and issuer and returns the asserted identity. Verification
	// failure leaves no trace in any store.
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)
}
