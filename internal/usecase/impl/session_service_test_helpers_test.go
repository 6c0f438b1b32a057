package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"fittrack/config"
	"fittrack/internal/domain/entity"
	domainerrors "fittrack/internal/domain/errors"
	"fittrack/internal/domain/repository"
	"fittrack/internal/domain/service"
	infraauth "fittrack/internal/infra/auth"
	"fittrack/internal/infra/auth/google"
	"fittrack/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- In-memory repository fakes ---

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	clone := *user

	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByGoogleID(_ context.Context, googleID string) (*entity.User, error) {
	for _, user := range r.users {
		if user.GoogleID != "" && user.GoogleID == googleID {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}

	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) delete(id uuid.UUID) {
	delete(r.users, id)
}

type fakeRefreshTokenRepo struct {
	tokens map[string]*entity.RefreshToken // keyed by digest
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*entity.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()

	clone := *token
	r.tokens[token.TokenHash] = &clone

	return nil
}

func (r *fakeRefreshTokenRepo) Redeem(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}

	if token.Expired(time.Now()) {
		delete(r.tokens, tokenHash)

		return nil, repository.ErrRefreshTokenExpired
	}

	clone := *token

	return &clone, nil
}

func (r *fakeRefreshTokenRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	if _, ok := r.tokens[tokenHash]; !ok {
		return repository.ErrRefreshTokenNotFound
	}

	delete(r.tokens, tokenHash)

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for hash, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, hash)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	now := time.Now()
	for hash, token := range r.tokens {
		if token.Expired(now) {
			delete(r.tokens, hash)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) countForUser(userID uuid.UUID) int {
	count := 0
	for _, token := range r.tokens {
		if token.UserID == userID {
			count++
		}
	}

	return count
}

// fakeTxManager runs the unit of work directly against the fakes; it doubles
// as the repository factory since there is no real transaction to bind to.
type fakeTxManager struct {
	users  *fakeUserRepo
	tokens *fakeRefreshTokenRepo
}

func (m *fakeTxManager) UserRepo() repository.UserRepository { return m.users }

func (m *fakeTxManager) RefreshTokenRepo() repository.RefreshTokenRepository { return m.tokens }

func (m *fakeTxManager) Execute(_ context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	return fn(m)
}

// stubOAuthService returns a canned assertion result.
type stubOAuthService struct {
	user *service.OAuthUser
	err  error
}

func (s *stubOAuthService) VerifyIDToken(_ context.Context, _ string) (*service.OAuthUser, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.user, nil
}

// --- Fixture ---

type sessionFixture struct {
	svc       usecase.SessionUsecase
	users     *fakeUserRepo
	tokens    *fakeRefreshTokenRepo
	tokenSvc  service.TokenService
	blacklist *infraauth.MemoryBlacklist
	oauth     *stubOAuthService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	oauth := &stubOAuthService{}
	f := newSessionFixtureWith(t, oauth)
	f.oauth = oauth

	return f
}

// newGoogleSessionFixture wires the production assertion verifier instead of
// the stub, so verifier failures travel the same path they would in a server.
func newGoogleSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	cfg := &config.Config{
		GoogleOAuth: &config.GoogleOAuthConfig{ClientID: "test-client-id"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return newSessionFixtureWith(t, google.NewAuthService(cfg, logger))
}

func newSessionFixtureWith(t *testing.T, verifier service.OAuthService) *sessionFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.Auth = &config.AuthConfig{BcryptCost: 10}

	tokenSvc, err := infraauth.NewJWTService(cfg)
	require.NoError(t, err)

	blacklist := infraauth.NewMemoryBlacklist(tokenSvc)
	t.Cleanup(blacklist.Close)

	users := newFakeUserRepo()
	tokens := newFakeRefreshTokenRepo()
	txManager := &fakeTxManager{users: users, tokens: tokens}

	svc := NewSessionService(
		txManager,
		users,
		tokens,
		infraauth.NewBcryptHasher(cfg),
		tokenSvc,
		verifier,
		blacklist,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &sessionFixture{
		svc:       svc,
		users:     users,
		tokens:    tokens,
		tokenSvc:  tokenSvc,
		blacklist: blacklist,
	}
}

func (f *sessionFixture) register(t *testing.T, email string) *usecase.AuthOutput {
	t.Helper()

	output, err := f.svc.Register(context.Background(), &usecase.RegisterInput{
		Username: "Test User",
		Email:    email,
		Password: "password1234",
	})
	require.NoError(t, err)
	require.NotNil(t, output)

	return output
}
