// Package sender собирает воркер, который читает очередь писем и отправляет их по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/contractforge-auth/internal/config"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/smtp"
	"github.com/magabrotheeeer/contractforge-auth/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/contractforge-auth/internal/services/sender"
)

// App — воркер отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	cfg           *config.Config
	logger        *slog.Logger
}

// New подключается к RabbitMQ и объявляет очередь писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is not configured", op)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQRetries, cfg.RabbitMQDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	topo := rabbitmq.EmailTopology(cfg.RabbitMQExchange, cfg.RabbitMQQueue, cfg.RabbitMQRoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topo)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(logger, transport, cfg.FrontendURL),
		cfg:           cfg,
		logger:        logger,
	}, nil
}

// Run читает очередь до отмены ctx, затем дожидается начатых отправок.
func (a *App) Run(ctx context.Context) error {
	wait, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.cfg.RabbitMQQueue, a.handle)
	if err != nil {
		a.logger.Error("failed to start email consumer", slog.String("queue", a.cfg.RabbitMQQueue), sl.Err(err))
		a.close()
		return err
	}

	a.logger.Info("email consumer started", slog.String("queue", a.cfg.RabbitMQQueue))
	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	wait()
	a.close()
	return nil
}

// handle ограничивает отправку одного письма таймаутом SMTP.
func (a *App) handle(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.SMTPSendTimeout)
	defer cancel()
	return a.senderService.Handle(ctx, body)
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
