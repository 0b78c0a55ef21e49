package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/github"
	"github.com/layer-3/walletauth/adapters/postgres"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/config"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	httptransport "github.com/layer-3/walletauth/transport/http"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.Load,
			newLogger,
			newPGXPool,
			newRedisClient,
			newEventPublisher,
			store.NewRedisStore,
			newChallengeStore,
			newVerifier,
			newSessionIssuer,
			newUserDirectory,
			newAccountStore,
			newOAuthProvider,
			newAuthService,
			service.NewLinkService,
			newRouter,
		),
		fx.Invoke(migrate, startHTTPServer),
	)

	app.Run()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
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

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}

func newEventPublisher(lc fx.Lifecycle, client *redis.Client, logger *zap.Logger) (ports.EventPublisher, error) {
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		events.NewZapLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	return events.NewWatermillPublisher(publisher), nil
}

func newChallengeStore(s *store.RedisStore) ports.ChallengeStore {
	return s
}

func newVerifier(cfg config.Config) (ports.SignatureVerifier, error) {
	codec, err := eth.NewMessageCodec(cfg.MessageEncoding)
	if err != nil {
		return nil, err
	}
	return eth.NewVerifier(codec), nil
}

func newSessionIssuer(cfg config.Config, s *store.RedisStore) (*service.SessionIssuer, error) {
	tok, err := tokenizer.NewJWTTokenizer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	var denylist ports.Denylist
	if cfg.SessionRevocation {
		denylist = s
	}

	return service.NewSessionIssuer(tok, cfg.JWTIssuer, denylist), nil
}

func newUserDirectory(pool *pgxpool.Pool) ports.UserDirectory {
	return postgres.NewUserRepo(pool)
}

func newAccountStore(pool *pgxpool.Pool) ports.AccountLinkStore {
	return postgres.NewAccountRepo(pool)
}

func newOAuthProvider(cfg config.Config) ports.OAuthProvider {
	return github.NewProvider(github.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURL(),
		Timeout:      cfg.GitHubTimeout,
	})
}

func newAuthService(
	cfg config.Config,
	challenges ports.ChallengeStore,
	verifier ports.SignatureVerifier,
	users ports.UserDirectory,
	sessions *service.SessionIssuer,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(challenges, verifier, users, sessions, eventPub, logger, cfg.AppName)
}

func newRouter(cfg config.Config, authService *service.AuthService, linkService *service.LinkService, logger *zap.Logger) *gin.Engine {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	return httptransport.SetupRouter(authService, linkService, logger, httptransport.Options{
		Development: cfg.Development(),
	})
}

func migrate(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) {
	if !cfg.AutoMigrate {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.Info("database schema applied")
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, router *gin.Engine, cfg config.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}

			logger.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
