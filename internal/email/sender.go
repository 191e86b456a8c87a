package email

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/signup-service/internal/lib/rabbitmq"
)

// Publisher публикует сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Sender ставит письма в очередь регистрационных писем.
type Sender struct {
	publisher Publisher
}

// NewSender создаёт Sender поверх издателя RabbitMQ.
func NewSender(publisher Publisher) *Sender {
	return &Sender{publisher: publisher}
}

// Send публикует письмо для последующей отправки по SMTP.
func (s *Sender) Send(ctx context.Context, to, subject, html, text string) error {
	const op = "email.Send"

	msg := Message{To: to, Subject: subject, HTML: html, Text: text}
	if err := s.publisher.Publish(ctx, rabbitmq.SignupMailQueue.RoutingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
