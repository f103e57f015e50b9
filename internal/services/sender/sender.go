// Package services отправляет пользователям письма подтверждения почты
// и сброса пароля по SMTP.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/smtp"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// ErrUnknownKind возвращается для писем неизвестного типа.
var ErrUnknownKind = errors.New("unknown email kind")

// ErrInvalidAddress возвращается для адреса с переводом строки.
var ErrInvalidAddress = errors.New("invalid recipient address")

// Transport открывает SMTP-сеанс и сообщает адрес отправителя.
type Transport interface {
	Connect(ctx context.Context) (smtp.Client, error)
	From() string
}

// SenderService формирует и отправляет письма.
type SenderService struct {
	transport   Transport
	log         *slog.Logger
	frontendURL string
}

// NewSenderService создает новый экземпляр SenderService.
// Ссылки в письмах строятся относительно frontendURL.
func NewSenderService(log *slog.Logger, transport Transport, frontendURL string) *SenderService {
	return &SenderService{
		transport:   transport,
		log:         log,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Notify отправляет письмо, соответствующее msg.Kind.
func (s *SenderService) Notify(ctx context.Context, msg models.EmailMessage) error {
	const op = "sender.Notify"

	var (
		subject string
		tmpl    *template.Template
		path    string
	)
	switch msg.Kind {
	case models.EmailVerification:
		subject, tmpl, path = "Verify your email", verificationTemplate, "/verify-email"
	case models.EmailPasswordReset:
		subject, tmpl, path = "Reset your password", passwordResetTemplate, "/reset-password"
	default:
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownKind, msg.Kind)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, emailData{Name: msg.Name, Link: s.link(path, msg.Token)}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendEmail(ctx, msg.To, subject, body.String()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Handle обрабатывает сообщение из очереди писем. Некорректные сообщения
// логируются и отбрасываются, чтобы не возвращаться в очередь бесконечно.
func (s *SenderService) Handle(ctx context.Context, body []byte) error {
	var msg models.EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return nil
	}
	if err := s.Notify(ctx, msg); err != nil {
		if errors.Is(err, ErrUnknownKind) || errors.Is(err, ErrInvalidAddress) {
			s.log.Error("dropping undeliverable message", slog.String("kind", string(msg.Kind)), sl.Err(err))
			return nil
		}
		return err
	}
	return nil
}

func (s *SenderService) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *SenderService) sendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if strings.ContainsAny(to, "\r\n") {
		return ErrInvalidAddress
	}
	from := s.transport.From()

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
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

	s.log.Info("email sent", slog.String("subject", subject))
	return nil
}
