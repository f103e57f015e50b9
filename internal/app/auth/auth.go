// Package auth собирает HTTP-сервер сервиса аутентификации.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/contractforge-auth/internal/cache"
	"github.com/magabrotheeeer/contractforge-auth/internal/config"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/password"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/smtp"
	"github.com/magabrotheeeer/contractforge-auth/internal/metrics"
	"github.com/magabrotheeeer/contractforge-auth/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/contractforge-auth/internal/services/auth"
	senderservice "github.com/magabrotheeeer/contractforge-auth/internal/services/sender"
	"github.com/magabrotheeeer/contractforge-auth/internal/storage"
)

// App — HTTP-сервер сервиса аутентификации и его зависимости.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	cfg     *config.Config
	service *authservice.AuthService
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
}

// New создаёт хранилище, сервис, ограничители частоты и маршруты.
// Redis и RabbitMQ подключаются, только если заданы их адреса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.auth.New"

	app := &App{logger: logger, cfg: cfg}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	notifier, err := app.notifier(ctx)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store := storage.New()
	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	app.service = authservice.NewAuthService(
		logger,
		store,
		tokens,
		password.NewHasher(cfg.BcryptCost),
		notifier,
		m,
		authservice.Options{
			StrictEmailVerification:       cfg.StrictEmailVerification,
			MaxSessions:                   cfg.MaxSessions,
			VerificationTTL:               cfg.VerificationTTL,
			ResetTTL:                      cfg.ResetTTL,
			ConcealUnknownAccounts:        cfg.ConcealUnknownAccounts,
			RevokeSessionsOnPasswordReset: cfg.RevokeSessionsOnPasswordReset,
			SendTimeout:                   cfg.SMTPSendTimeout,
		},
	)

	if err := app.service.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	general, authLimiter, err := app.limiters(ctx)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:         logger,
		Service:        app.service,
		Tokens:         tokens,
		Sessions:       store,
		General:        general,
		Auth:           authLimiter,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		FrontendURL:    cfg.FrontendURL,
		Production:     cfg.IsProduction(),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// notifier выбирает способ доставки писем: очередь RabbitMQ, если задан URL,
// иначе прямую отправку по SMTP.
func (a *App) notifier(ctx context.Context) (authservice.Notifier, error) {
	if a.cfg.RabbitMQURL == "" {
		a.logger.Info("emails are sent directly over smtp", slog.String("host", a.cfg.SMTPHost))
		transport := smtp.NewTransport(a.cfg.SMTP, a.logger)
		return senderservice.NewSenderService(a.logger, transport, a.cfg.FrontendURL), nil
	}

	conn, err := rabbitmq.Connect(ctx, a.cfg.RabbitMQURL, a.cfg.RabbitMQRetries, a.cfg.RabbitMQDelay)
	if err != nil {
		return nil, err
	}
	a.conn = conn

	topo := rabbitmq.EmailTopology(a.cfg.RabbitMQExchange, a.cfg.RabbitMQQueue, a.cfg.RabbitMQRoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topo)
	if err != nil {
		return nil, err
	}
	a.ch = ch

	a.logger.Info("emails are published to rabbitmq", slog.String("queue", a.cfg.RabbitMQQueue))
	return rabbitmq.NewEmailPublisher(ch, a.cfg.RabbitMQExchange, a.cfg.RabbitMQRoutingKey), nil
}

// limiters создаёт общий ограничитель и ограничитель для входа и регистрации.
// При заданном адресе Redis счётчики общие для всех экземпляров сервиса.
func (a *App) limiters(ctx context.Context) (general, auth middlewarectx.Limiter, err error) {
	rl := a.cfg.RateLimit
	if a.cfg.RedisAddress == "" {
		return middlewarectx.NewLocalLimiter(rl.GeneralRequests, rl.GeneralWindow),
			middlewarectx.NewLocalLimiter(rl.AuthRequests, rl.AuthWindow),
			nil
	}

	c, err := cache.InitServer(ctx, a.cfg.RedisConnection)
	if err != nil {
		return nil, nil, err
	}
	a.cache = c
	a.logger.Info("rate limits are shared through redis", slog.String("address", a.cfg.RedisAddress))
	return c.NewWindowLimiter("general", rl.GeneralRequests, rl.GeneralWindow),
		c.NewWindowLimiter("auth", rl.AuthRequests, rl.AuthWindow),
		nil
}

// Run запускает HTTP-сервер и блокируется до отмены ctx или ошибки сервера.
// При остановке дожидается отправки начатых писем и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
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

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.service.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
}
