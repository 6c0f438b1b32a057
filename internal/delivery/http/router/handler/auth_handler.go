// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"fittrack/internal/delivery/http/middleware"
	"fittrack/internal/delivery/http/response"
	"fittrack/internal/domain/entity"
	domainerrors "fittrack/internal/domain/errors"
	"fittrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for the session endpoints.
type AuthHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.SessionUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// userView is the public projection of a user record. The password hash
// never leaves the server.
type userView struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Provider  entity.Provider `json:"provider"`
	GoogleID  string          `json:"googleId,omitempty"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Verified  bool            `json:"verified"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newUserView(user *entity.User) userView {
	return userView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Provider:  user.Provider,
		GoogleID:  user.GoogleID,
		ImageURL:  user.ImageURL,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// sessionView is the response body for endpoints that open a session.
type sessionView struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Register(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, sessionView{
		User:         newUserView(output.User),
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}, "User registered successfully")
}

// Login handles the password login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Login(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessionView{
		User:         newUserView(output.User),
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}, "Login successful")
}

// Refresh handles the access token refresh request. A missing token is a
// client mistake (400), an unknown or expired one an authentication failure (401).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var input usecase.RefreshInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if input.RefreshToken == "" {
		return errors.WithStack(domainerrors.ErrRefreshTokenMissing)
	}

	output, err := h.uc.Refresh(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessionView{
		User:        newUserView(output.User),
		AccessToken: output.AccessToken,
	}, "Token refreshed successfully")
}

// logoutBody is the optional request body narrowing logout to one session.
type logoutBody struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout handles the sign-out request. The route is not behind the auth
// middleware: an expired access token must still be accepted here, so the
// handler reads the bearer token itself.
func (h *AuthHandler) Logout(c echo.Context) error {
	accessToken, err := middleware.BearerToken(c)
	if err != nil {
		return errors.WithStack(domainerrors.ErrNoToken)
	}

	// The body is optional; a missing or malformed one means "all sessions".
	var body logoutBody
	_ = c.Bind(&body)

	if err := h.uc.Logout(c.Request().Context(), &usecase.LogoutInput{
		AccessToken:  accessToken,
		RefreshToken: body.RefreshToken,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"message":   "Successfully logged out",
		"timestamp": time.Now().Format(time.RFC3339),
	}, "Logout successful")
}

// GoogleLogin handles the Google Sign-In request carrying an ID token.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var input usecase.GoogleLoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid Google login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.GoogleLogin(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessionView{
		User:         newUserView(output.User),
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	}, "Google login successful")
}

// Me returns the profile of the authenticated user. The auth middleware has
// already resolved the user onto the request context.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := c.Get(middleware.KeyUser).(*entity.User)
	if !ok {
		return errors.WithStack(domainerrors.ErrAccessTokenInvalid)
	}

	return response.Success(c, http.StatusOK, newUserView(user), "User profile retrieved")
}
