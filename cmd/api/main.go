package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leadflow/leadflow-api/internal/config"
	httptransport "github.com/leadflow/leadflow-api/internal/http"
	"github.com/leadflow/leadflow-api/internal/http/handler"
	httpmiddleware "github.com/leadflow/leadflow-api/internal/http/middleware"
	"github.com/leadflow/leadflow-api/internal/identity/google"
	"github.com/leadflow/leadflow-api/internal/jwt"
	apimiddleware "github.com/leadflow/leadflow-api/internal/middleware"
	"github.com/leadflow/leadflow-api/internal/password"
	"github.com/leadflow/leadflow-api/internal/repository"
	"github.com/leadflow/leadflow-api/internal/server"
	"github.com/leadflow/leadflow-api/internal/service"
	"github.com/leadflow/leadflow-api/internal/telemetry"
)

const connectTimeout = 10 * time.Second

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newUserRepository,
			newPasswordHasher,
			newTokenGenerator,
			newIdentityVerifier,
			newAuthService,
			newRateLimiter,
			handler.NewAuthHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newUserRepository(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (repository.UserRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	logger.Info("opening user store", zap.String("driver", string(cfg.Driver)))

	switch cfg.Driver {
	case config.DriverMongo:
		client, err := repository.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoUserRepo(client.Database(cfg.DatabaseName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Disconnect(ctx)
			},
		})
		return repo, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := repository.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
		return repository.NewPostgresUserRepo(pool), nil

	case config.DriverMemory:
		logger.Warn("using in-memory user store; accounts are lost on restart")
		return repository.NewMemoryUserRepo(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func newPasswordHasher(cfg config.Config) *password.Hasher {
	return password.NewHasher(cfg.BcryptCost)
}

func newTokenGenerator(cfg config.Config) (*jwt.Generator, error) {
	return jwt.NewGenerator([]byte(cfg.JWTSecret), cfg.JWTAlgorithm, cfg.AccessTokenTTL)
}

func newIdentityVerifier(cfg config.Config, logger *zap.Logger) service.IdentityVerifier {
	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set; google login will reject every token")
	}
	return google.New(context.Background(), cfg.GoogleClientID, google.WithLogger(logger))
}

func newAuthService(
	users repository.UserRepository,
	hasher *password.Hasher,
	tokens *jwt.Generator,
	identity service.IdentityVerifier,
	logger *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(users, hasher, tokens, identity, logger)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthMiddleware(authService *service.AuthService) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{AuthService: authService}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
