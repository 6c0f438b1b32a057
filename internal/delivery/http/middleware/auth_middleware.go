package middleware

import (
	"strings"

	domainerrors "fittrack/internal/domain/errors"
	"fittrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Context keys set by Authenticate for downstream handlers.
const (
	// KeyUserID holds the authenticated user's uuid.UUID.
	KeyUserID = "userID"
	// KeyUser holds the authenticated *entity.User.
	KeyUser = "user"
	// KeyAccessToken holds the raw bearer token of the request.
	KeyAccessToken = "accessToken"
)

// AuthMiddleware gates protected routes on a valid, unrevoked access token.
type AuthMiddleware struct {
	uc usecase.SessionUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(uc usecase.SessionUsecase) *AuthMiddleware {
	return &AuthMiddleware{uc: uc}
}

// Authenticate validates the bearer token and stores the resolved user on the
// request context. Revocation is checked before the signature so a blacklisted
// token is rejected even while it would still verify.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := BearerToken(c)
		if err != nil {
			return err
		}

		user, err := m.uc.Authenticate(c.Request().Context(), tokenString)
		if err != nil {
			return errors.WithStack(err)
		}

		c.Set(KeyUserID, user.ID)
		c.Set(KeyUser, user)
		c.Set(KeyAccessToken, tokenString)

		return next(c)
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.WithStack(domainerrors.ErrBearerTokenMissing)
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", errors.WithStack(domainerrors.ErrBearerTokenMissing)
	}

	return tokenString, nil
}
