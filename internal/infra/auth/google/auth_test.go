package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"fittrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "test-client-id.apps.googleusercontent.com"

func newTestAuthService() *AuthService {
	cfg := &config.Config{
		GoogleOAuth: &config.GoogleOAuthConfig{ClientID: testClientID},
	}

	return NewAuthService(cfg, slog.Default()).(*AuthService)
}

// buildIDToken assembles an unsigned JWT carrying the given claims. Signature
// verification is out of scope here, so any signature segment will do.
func buildIDToken(t *testing.T, claims IDTokenClaims) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString(payload)

	return header + "." + body + ".signature"
}

func validClaims() IDTokenClaims {
	return IDTokenClaims{
		Iss:           "https://accounts.google.com",
		Sub:           "google-subject-123",
		Aud:           testClientID,
		Exp:           time.Now().Add(time.Hour).Unix(),
		Iat:           time.Now().Unix(),
		Email:         "alex@example.com",
		EmailVerified: true,
		Name:          "Alex Example",
		Picture:       "https://example.com/avatar.png",
	}
}

func TestVerifyIDToken_Valid(t *testing.T) {
	svc := newTestAuthService()

	token := buildIDToken(t, validClaims())

	user, err := svc.VerifyIDToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "google-subject-123", user.ID)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.Equal(t, "Alex Example", user.Name)
	assert.Equal(t, "https://example.com/avatar.png", user.Picture)
	assert.True(t, user.EmailVerified)
}

func TestVerifyIDToken_AlternateIssuer(t *testing.T) {
	svc := newTestAuthService()

	claims := validClaims()
	claims.Iss = "accounts.google.com"

	user, err := svc.VerifyIDToken(context.Background(), buildIDToken(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "google-subject-123", user.ID)
}

func TestVerifyIDToken_WrongIssuer(t *testing.T) {
	svc := newTestAuthService()

	claims := validClaims()
	claims.Iss = "https://evil.example.com"

	user, err := svc.VerifyIDToken(context.Background(), buildIDToken(t, claims))
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "invalid issuer")
}

func TestVerifyIDToken_WrongAudience(t *testing.T) {
	svc := newTestAuthService()

	claims := validClaims()
	claims.Aud = "some-other-client-id"

	user, err := svc.VerifyIDToken(context.Background(), buildIDToken(t, claims))
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "invalid audience")
}

func TestVerifyIDToken_Expired(t *testing.T) {
	svc := newTestAuthService()

	claims := validClaims()
	claims.Exp = time.Now().Add(-time.Hour).Unix()

	user, err := svc.VerifyIDToken(context.Background(), buildIDToken(t, claims))
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "token expired")
}

func TestVerifyIDToken_EmailNotVerified(t *testing.T) {
	svc := newTestAuthService()

	claims := validClaims()
	claims.EmailVerified = false

	user, err := svc.VerifyIDToken(context.Background(), buildIDToken(t, claims))
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "email not verified")
}

func TestVerifyIDToken_Malformed(t *testing.T) {
	svc := newTestAuthService()

	for _, token := range []string{"", "no-dots", "one.dot", "a.!!!notbase64!!!.c"} {
		user, err := svc.VerifyIDToken(context.Background(), token)
		assert.Error(t, err)
		assert.Nil(t, user)
	}
}
