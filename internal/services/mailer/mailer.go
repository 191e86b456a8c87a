// Package mailer отправляет письма из очереди по SMTP.
package mailer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/magabrotheeeer/signup-service/internal/email"
	"github.com/magabrotheeeer/signup-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/lib/smtp"
)

// Service доставляет письма, полученные из очереди.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// Handle разбирает тело сообщения очереди и отправляет письмо.
//
// Неразбираемое сообщение и отказ SMTP-сервера с кодом 5xx помечаются
// rabbitmq.ErrPermanent: повторная доставка их не исправит.
func (s *Service) Handle(body []byte) error {
	const op = "mailer.Handle"

	var msg email.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if msg.To == "" {
		return fmt.Errorf("%s: empty recipient: %w", op, rabbitmq.ErrPermanent)
	}

	raw, err := s.compose(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.send(msg.To, raw); err != nil {
		if isPermanentReply(err) {
			return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// isPermanentReply сообщает, ответил ли SMTP-сервер постоянным отказом.
func isPermanentReply(err error) bool {
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code >= 500
}

// compose собирает письмо multipart/alternative с текстовой и HTML частями.
func (s *Service) compose(msg email.Message) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=\"UTF-8\"", msg.Text},
		{"text/html; charset=\"UTF-8\"", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		pw, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	headers := []string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"" + w.Boundary() + "\"",
	}
	for _, h := range headers {
		out.WriteString(h)
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func (s *Service) send(to string, msg []byte) error {
	from := s.transport.GetSMTPUser()

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("failed to close SMTP client", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.String("to", to))
	return nil
}
