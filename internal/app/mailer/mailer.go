// Package mailer собирает приложение, отправляющее письма из очереди RabbitMQ.
package mailer

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/signup-service/internal/config"
	"github.com/magabrotheeeer/signup-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/lib/smtp"
	mailerservice "github.com/magabrotheeeer/signup-service/internal/services/mailer"
)

type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *mailerservice.Service
	logger  *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.MailExchange, rabbitmq.GetMailQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:    conn,
		ch:      ch,
		service: mailerservice.New(logger, transport),
		logger:  logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	queue := rabbitmq.SignupMailQueue.QueueName
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.logger, a.service.Handle); err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
		return err
	}
	a.logger.Info("mailer started", slog.String("queue", queue))

	<-ctx.Done()
	a.logger.Info("mailer shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
