package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"fittrack/config"
	"fittrack/internal/delivery"
	"fittrack/internal/delivery/http"
	"fittrack/internal/delivery/http/middleware"
	"fittrack/internal/delivery/http/router/handler"
	"fittrack/internal/domain/repository"
	"fittrack/internal/domain/service"
	"fittrack/internal/infra/auth"
	"fittrack/internal/infra/auth/google"
	logs "fittrack/internal/infra/log"
	"fittrack/internal/infra/persistence/postgres"
	redisinfra "fittrack/internal/infra/redis"
	"fittrack/internal/usecase/impl"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// tokenSweepInterval paces the background cleanup of refresh tokens that
// expired without ever being redeemed again.
const tokenSweepInterval = time.Hour

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
			startTokenSweeper,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		redisinfra.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			google.NewAuthService,
			newRevocationRegistry,
		),
	)
}

type revocationRegistryParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Tokens service.TokenService
	Redis  *redis.Client `optional:"true"`
}

// newRevocationRegistry selects the blacklist backend. The in-memory registry
// is the default; Redis shares revocations across instances.
func newRevocationRegistry(params revocationRegistryParams) (service.RevocationRegistry, error) {
	switch params.Config.Auth.BlacklistBackend {
	case config.BlacklistBackendRedis:
		if params.Redis == nil {
			return nil, errors.New("redis blacklist backend requires auth.redisUrl")
		}

		return auth.NewRedisBlacklist(params.Redis, params.Tokens), nil

	case config.BlacklistBackendMemory:
		registry := auth.NewMemoryBlacklist(params.Tokens)
		params.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				registry.Close()

				return nil
			},
		})

		return registry, nil

	default:
		return nil, errors.Errorf("unknown blacklist backend: %s", params.Config.Auth.BlacklistBackend)
	}
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewLoggerMiddleware,
			middleware.NewRequestIDMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

type tokenSweeperParams struct {
	fx.In
	fx.Lifecycle

	Logger    *slog.Logger
	TokenRepo repository.RefreshTokenRepository
}

// startTokenSweeper periodically deletes expired refresh tokens. Redemption
// already removes expired rows lazily; the sweep handles abandoned sessions.
func startTokenSweeper(params tokenSweeperParams) {
	sweepCtx, cancel := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ticker := time.NewTicker(tokenSweepInterval)
				defer ticker.Stop()

				for {
					select {
					case <-sweepCtx.Done():
						return
					case <-ticker.C:
						if err := params.TokenRepo.DeleteExpired(sweepCtx); err != nil {
							params.Logger.Warn("Expired token sweep failed", slog.Any("error", err))
						}
					}
				}
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()

			return nil
		},
	})
}
