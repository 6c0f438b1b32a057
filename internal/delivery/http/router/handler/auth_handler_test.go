package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fittrack/internal/delivery/http/middleware"
	"fittrack/internal/delivery/http/validator"
	"fittrack/internal/domain/entity"
	domainerrors "fittrack/internal/domain/errors"
	"fittrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessionUsecase lets each test pin the outcome of the session manager.
type stubSessionUsecase struct {
	authOut  *usecase.AuthOutput
	authErr  error
	refOut   *usecase.RefreshOutput
	refErr   error
	logErr   error
	authnOut *entity.User
	authnErr error

	gotLogout *usecase.LogoutInput
}

func (s *stubSessionUsecase) Register(_ context.Context, _ *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	return s.authOut, s.authErr
}

func (s *stubSessionUsecase) Login(_ context.Context, _ *usecase.LoginInput) (*usecase.AuthOutput, error) {
	return s.authOut, s.authErr
}

func (s *stubSessionUsecase) Refresh(_ context.Context, _ *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	return s.refOut, s.refErr
}

func (s *stubSessionUsecase) Logout(_ context.Context, input *usecase.LogoutInput) error {
	s.gotLogout = input

	return s.logErr
}

func (s *stubSessionUsecase) GoogleLogin(_ context.Context, _ *usecase.GoogleLoginInput) (*usecase.AuthOutput, error) {
	return s.authOut, s.authErr
}

func (s *stubSessionUsecase) Authenticate(_ context.Context, _ string) (*entity.User, error) {
	return s.authnOut, s.authnErr
}

func (s *stubSessionUsecase) CurrentUser(_ context.Context, _ uuid.UUID) (*entity.User, error) {
	return s.authnOut, s.authnErr
}

func testUser() *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Username:     "Test User",
		Email:        "user@example.com",
		PasswordHash: "$2a$10$secret",
		Provider:     entity.ProviderLocal,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// newTestServer wires the handler into a real echo instance so validation,
// routing and the error handler all run like in production.
func newTestServer(uc usecase.SessionUsecase) *echo.Echo {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	h := NewAuthHandler(uc, logger)
	authMiddleware := middleware.NewAuthMiddleware(uc)

	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/refresh", h.Refresh)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/google", h.GoogleLogin)
	authGroup.GET("/me", h.Me, authMiddleware.Authenticate)

	return e
}

func doJSON(e *echo.Echo, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestAuthHandler_Register_Created(t *testing.T) {
	uc := &stubSessionUsecase{
		authOut: &usecase.AuthOutput{
			User:         testUser(),
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
		},
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"username":"Test User","email":"user@example.com","password":"password1234"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"accessToken":"access-token"`)
	assert.Contains(t, body, `"refreshToken":"refresh-token"`)
	assert.Contains(t, body, `"email":"user@example.com"`)
	// The hash must never appear in a response.
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "passwordHash")
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newTestServer(&stubSessionUsecase{})

	// Password below the minimum length.
	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"username":"Test User","email":"user@example.com","password":"short"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	uc := &stubSessionUsecase{
		authErr: errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered"),
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"username":"Test User","email":"user@example.com","password":"password1234"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_ALREADY_EXISTS")
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	uc := &stubSessionUsecase{
		authErr: errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed"),
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"user@example.com","password":"wrong-password"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	e := newTestServer(&stubSessionUsecase{})

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_TOKEN")
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	uc := &stubSessionUsecase{
		refErr: errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token not found or expired"),
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{"refreshToken":"stale"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "REFRESH_TOKEN_INVALID")
}

func TestAuthHandler_Logout_NoBearerToken(t *testing.T) {
	e := newTestServer(&stubSessionUsecase{})

	rec := doJSON(e, http.MethodPost, "/auth/logout", ``, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_TOKEN")
}

func TestAuthHandler_Logout_SingleSession(t *testing.T) {
	uc := &stubSessionUsecase{}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/logout",
		`{"refreshToken":"the-refresh-token"}`,
		map[string]string{"Authorization": "Bearer the-access-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Successfully logged out")
	assert.Contains(t, rec.Body.String(), "timestamp")

	require.NotNil(t, uc.gotLogout)
	assert.Equal(t, "the-access-token", uc.gotLogout.AccessToken)
	assert.Equal(t, "the-refresh-token", uc.gotLogout.RefreshToken)
}

func TestAuthHandler_Logout_NoBodyMeansAllSessions(t *testing.T) {
	uc := &stubSessionUsecase{}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/logout", ``,
		map[string]string{"Authorization": "Bearer the-access-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.gotLogout)
	assert.Empty(t, uc.gotLogout.RefreshToken)
}

func TestAuthHandler_Google_InvalidAssertion(t *testing.T) {
	uc := &stubSessionUsecase{
		authErr: errors.Wrap(domainerrors.ErrOAuthTokenInvalid, "token verification failed"),
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodPost, "/auth/google", `{"idToken":"bad"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "OAUTH_TOKEN_INVALID")
}

func TestAuthHandler_Me(t *testing.T) {
	user := testUser()
	uc := &stubSessionUsecase{authnOut: user}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodGet, "/auth/me", ``,
		map[string]string{"Authorization": "Bearer valid-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.Email)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestAuthHandler_Me_MissingToken(t *testing.T) {
	e := newTestServer(&stubSessionUsecase{})

	rec := doJSON(e, http.MethodGet, "/auth/me", ``, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_TOKEN")
}

func TestAuthHandler_Me_RevokedToken(t *testing.T) {
	uc := &stubSessionUsecase{
		authnErr: errors.Wrap(domainerrors.ErrAccessTokenRevoked, "access token has been revoked"),
	}
	e := newTestServer(uc)

	rec := doJSON(e, http.MethodGet, "/auth/me", ``,
		map[string]string{"Authorization": "Bearer revoked-token"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCESS_TOKEN_REVOKED")
}
