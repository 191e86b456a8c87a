// Package server собирает HTTP-приложение регистрации: хранилище, миграции,
// лимит регистраций в Redis, очередь писем и маршруты.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/signup-service/internal/captcha"
	"github.com/magabrotheeeer/signup-service/internal/config"
	"github.com/magabrotheeeer/signup-service/internal/email"
	"github.com/magabrotheeeer/signup-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/signup-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/signup-service/internal/lib/jwt"
	"github.com/magabrotheeeer/signup-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/limiter"
	"github.com/magabrotheeeer/signup-service/internal/metrics"
	"github.com/magabrotheeeer/signup-service/internal/migrations"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	"github.com/magabrotheeeer/signup-service/internal/services/session"
	"github.com/magabrotheeeer/signup-service/internal/services/signup"
	"github.com/magabrotheeeer/signup-service/internal/services/sweeper"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *storage.Storage
	redis    *redis.Client
	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
	sweeper  *sweeper.Service
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{logger: logger}
	if err := app.setup(ctx, cfg); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (a *App) setup(ctx context.Context, cfg *config.Config) (err error) {
	logger := a.logger

	a.db, err = storage.New(cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	if err = migrations.Run(a.db.DB, cfg.MigrationsPath); err != nil {
		return err
	}

	a.redis, err = limiter.Connect(ctx, cfg.RedisConnection)
	if err != nil {
		return err
	}

	a.amqpConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return err
	}
	a.amqpCh, err = rabbitmq.SetupChannel(a.amqpConn, rabbitmq.MailExchange, rabbitmq.GetMailQueues())
	if err != nil {
		return err
	}

	var resolver email.Resolver
	if !cfg.SkipMXCheck {
		resolver = net.DefaultResolver
	}

	signupService := signup.New(logger, signup.Deps{
		Store:          a.db,
		Captcha:        captcha.New(cfg.CaptchaTimeout),
		EmailValidator: email.NewValidator(a.db, resolver),
		EmailSender:    email.NewSender(rabbitmq.NewPublisher(a.amqpCh, rabbitmq.MailExchange)),
		Accounts:       accounts.NewCreator(a.db),
		Limiter:        limiter.New(a.redis, cfg.RegistrationLimit),
		Sessions:       session.NewIssuer(a.db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger),
		Metrics:        metrics.NewSignup(prometheus.DefaultRegisterer),
	}, signup.Options{
		TestMode: cfg.TestMode,
		URL:      cfg.URL,
	})
	if cfg.TestMode {
		logger.Warn("signup test mode is enabled: captcha is not verified")
	}

	a.sweeper = sweeper.New(a.db, logger, cfg.PendingRetention, cfg.PendingSweepInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Routes{
		Signup:        signupService,
		SignupPending: signupService,
		Checks: map[string]health.Check{
			"postgres": a.db.Ping,
			"redis":    func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		},
		Limiter:  middlewarectx.NewIPRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Gatherer: prometheus.DefaultGatherer,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close освобождает соединения. Безопасен для частично собранного App.
func (a *App) close() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis client", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", sl.Err(err))
		}
	}
}
