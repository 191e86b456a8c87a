package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений.
const maxInFlight = 10

// ErrPermanent помечает ошибку обработки, которую повторная доставка не исправит.
// Такое сообщение отклоняется без возврата в очередь.
var ErrPermanent = errors.New("permanent failure")

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
//
// Сообщение подтверждается, если handler вернул nil. При ошибке, обёрнутой
// вокруг ErrPermanent, сообщение отбрасывается, иначе возвращается в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					handleDelivery(log, delivery, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// handleDelivery передаёт тело сообщения handler и подтверждает, возвращает
// в очередь или отбрасывает сообщение по результату.
func handleDelivery(log *slog.Logger, delivery amqp.Delivery, handler func([]byte) error) {
	err := handler(delivery.Body)
	if err == nil {
		if ackErr := delivery.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrPermanent)
	log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := delivery.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
