// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "fittrack/internal/delivery/context"
	"fittrack/internal/domain/entity"
	domainerrors "fittrack/internal/domain/errors"
	"fittrack/internal/domain/repository"
	"fittrack/internal/domain/service"
	"fittrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// sessionService implements the SessionUsecase interface. It composes the
// token codec, the refresh token store, the revocation registry and the
// federated identity verifier into the login/logout/refresh protocol.
type sessionService struct {
	txManager        repository.TransactionManager
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	googleAuth       service.OAuthService
	blacklist        service.RevocationRegistry
	logger           *slog.Logger
}

// NewSessionService is the constructor for sessionService. It receives all dependencies as interfaces.
func NewSessionService(
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	hasher service.PasswordHasher,
	tokenService service.TokenService,
	googleAuth service.OAuthService,
	blacklist service.RevocationRegistry,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		txManager:        txManager,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		hasher:           hasher,
		tokenService:     tokenService,
		googleAuth:       googleAuth,
		blacklist:        blacklist,
		logger:           logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new LOCAL account and opens its first session.
func (srv *sessionService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	var registered *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return errors.Wrap(domainerrors.ErrUserAlreadyExists, "email already registered")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to find user by email")
		}

		hashedPassword, err := srv.hasher.Hash(input.Password)
		if err != nil {
			return errors.Wrap(err, "failed to hash password during registration")
		}

		newUser := &entity.User{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hashedPassword,
			Provider:     entity.ProviderLocal,
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		registered = newUser

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	output, err := srv.openSession(ctx, registered)
	if err != nil {
		srv.log(ctx).Error("Failed to open session after registration", slog.Any("userID", registered.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to open session after registration")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", registered.ID))

	return output, nil
}

// Login authenticates email+password and opens a new session.
// Other sessions of the same user remain valid; concurrent sessions are allowed.
func (srv *sessionService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// Federated-only accounts have no local password to compare against.
	if user.Provider == entity.ProviderGoogle && !user.HasLocalPassword() {
		srv.log(ctx).Warn("Password login attempted on federated-only account", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrFederatedLoginRequired, "account has no local password")
	}

	// bcrypt comparison is CPU-bound; it runs outside any transaction.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		srv.log(ctx).Error("Failed to open session during login", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to open session during login")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return output, nil
}

// Refresh redeems a refresh token for a new access token.
// The refresh token itself remains valid and unchanged.
func (srv *sessionService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Debug("Attempting to refresh access token")

	tokenHash := srv.tokenService.HashToken(input.RefreshToken)

	record, err := srv.refreshTokenRepo.Redeem(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenExpired) {
			return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token not found or expired")
		}

		return nil, errors.Wrap(err, "failed to redeem refresh token")
	}

	user, err := srv.userRepo.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Account deleted while the session was outstanding.
			return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token owner no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user for refresh token")
	}

	accessToken, err := srv.tokenService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate new access token")
	}

	srv.log(ctx).Debug("Access token refreshed", slog.Any("userID", user.ID))

	return &usecase.RefreshOutput{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

// Logout blacklists the access token and revokes refresh tokens. When a
// specific refresh token is supplied only that session ends; otherwise the
// token's subject is decoded best-effort and every session is torn down.
// Sign-out is idempotent and never fails from the caller's perspective.
func (srv *sessionService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Attempting to log out")

	if err := srv.blacklist.Revoke(ctx, input.AccessToken); err != nil {
		// Best-effort: the access token still dies at its signed expiry.
		srv.log(ctx).Warn("Failed to blacklist access token", slog.Any("error", err))
	}

	if input.RefreshToken != "" {
		tokenHash := srv.tokenService.HashToken(input.RefreshToken)
		if err := srv.refreshTokenRepo.DeleteByHash(ctx, tokenHash); err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
			srv.log(ctx).Error("Failed to delete refresh token", slog.Any("error", err))

			return errors.Wrap(err, "failed to delete refresh token")
		}

		srv.log(ctx).Info("Successfully logged out single session")

		return nil
	}

	// No specific refresh token: decode the subject without verifying and
	// revoke every session. A token too mangled to decode means there is
	// nothing left to revoke.
	claims, err := srv.tokenService.DecodeUnverified(input.AccessToken)
	if err != nil {
		srv.log(ctx).Warn("Logout with undecodable token", slog.Any("error", err))

		return nil
	}

	if err := srv.refreshTokenRepo.DeleteByUserID(ctx, claims.UserID); err != nil {
		srv.log(ctx).Error("Failed to delete all refresh tokens", slog.Any("error", err), slog.Any("userID", claims.UserID))

		return errors.Wrap(err, "failed to delete all refresh tokens")
	}

	srv.log(ctx).Info("Successfully logged out from all devices", slog.Any("userID", claims.UserID))

	return nil
}

// GoogleLogin verifies a federated assertion and resolves it to a local
// account, then opens a session for it.
func (srv *sessionService) GoogleLogin(ctx context.Context, input *usecase.GoogleLoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Handling Google login")

	// Verifier failures carry transport-level detail; callers only ever see
	// the rejected-assertion error.
	oauthUser, err := srv.googleAuth.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		srv.log(ctx).Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid, "failed to verify Google ID token")
	}

	var loggedInUser *entity.User
	var accessToken, refreshToken string

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := srv.resolveGoogleUser(ctx, repoFactory.UserRepo(), oauthUser)
		if err != nil {
			return err
		}
		loggedInUser = user

		accessToken, refreshToken, err = srv.issueTokenPair(ctx, repoFactory.RefreshTokenRepo(), user.ID)

		return err
	})

	if err != nil {
		srv.log(ctx).Error("Failed to execute Google login transaction", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute Google login transaction")
	}

	srv.log(ctx).Debug("Google login completed", slog.Any("userID", loggedInUser.ID))

	return &usecase.AuthOutput{
		User:         loggedInUser,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// resolveGoogleUser maps a verified assertion onto a local account.
// Branches, in order: match by Google ID (profile refresh), match by email
// (link the federated identity onto the existing account), no match (create).
func (srv *sessionService) resolveGoogleUser(ctx context.Context, userRepo repository.UserRepository, oauthUser *service.OAuthUser) (*entity.User, error) {
	user, err := userRepo.FindByGoogleID(ctx, oauthUser.ID)
	if err == nil {
		if oauthUser.Name != "" {
			user.Username = oauthUser.Name
		}
		user.ImageURL = oauthUser.Picture

		if err := userRepo.Update(ctx, user); err != nil {
			return nil, errors.Wrap(err, "failed to refresh Google user profile")
		}

		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by Google ID")
	}

	existing, err := userRepo.FindByEmail(ctx, oauthUser.Email)
	if err == nil {
		srv.log(ctx).Info("Linking Google identity to existing account", slog.Any("userID", existing.ID))

		existing.GoogleID = oauthUser.ID
		existing.Provider = entity.ProviderGoogle
		existing.ImageURL = oauthUser.Picture
		existing.Verified = true

		if err := userRepo.Update(ctx, existing); err != nil {
			return nil, errors.Wrap(err, "failed to link Google identity")
		}

		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	srv.log(ctx).Info("Google user not found, creating new user", slog.String("email", oauthUser.Email))

	newUser := &entity.User{
		Username: oauthUser.Name,
		Email:    oauthUser.Email,
		Provider: entity.ProviderGoogle,
		GoogleID: oauthUser.ID,
		ImageURL: oauthUser.Picture,
		Verified: true,
	}

	if err := userRepo.Create(ctx, newUser); err != nil {
		return nil, errors.Wrap(err, "failed to create user for Google login")
	}

	return newUser, nil
}

// Authenticate gates protected requests: missing and revoked tokens fail
// before signature verification, and a verified token whose subject no
// longer exists fails as not-found.
func (srv *sessionService) Authenticate(ctx context.Context, accessToken string) (*entity.User, error) {
	revoked, err := srv.blacklist.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check revocation registry")
	}
	if revoked {
		return nil, errors.Wrap(domainerrors.ErrAccessTokenRevoked, "access token has been revoked")
	}

	claims, err := srv.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrAccessTokenInvalid, "access token verification failed")
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "token subject no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user by token subject")
	}

	return user, nil
}

// CurrentUser loads the profile of an already-authenticated user.
func (srv *sessionService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return user, nil
}

// openSession issues a token pair against the direct repository instance.
func (srv *sessionService) openSession(ctx context.Context, user *entity.User) (*usecase.AuthOutput, error) {
	accessToken, refreshToken, err := srv.issueTokenPair(ctx, srv.refreshTokenRepo, user.ID)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// issueTokenPair generates a signed access token plus an opaque refresh
// token and persists the refresh token's digest.
func (srv *sessionService) issueTokenPair(ctx context.Context, refreshRepo repository.RefreshTokenRepository, userID uuid.UUID) (string, string, error) {
	accessToken, err := srv.tokenService.GenerateAccessToken(userID)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate access token")
	}

	refreshToken, err := srv.tokenService.NewRefreshToken()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate refresh token")
	}

	newRefreshToken := &entity.RefreshToken{
		UserID:    userID,
		TokenHash: srv.tokenService.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(srv.tokenService.RefreshTokenTTL()),
	}

	if err := refreshRepo.Create(ctx, newRefreshToken); err != nil {
		return "", "", errors.Wrap(err, "failed to store refresh token")
	}

	return accessToken, refreshToken, nil
}
