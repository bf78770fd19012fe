package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/gomail.v2"

	"github.com/FACorreiaa/devcamper-api/config"
)

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sender is the part of gomail.Dialer the SMTP mailer needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay. Repeated relay failures open the
// breaker so requests fail fast instead of waiting on dial timeouts.
type SMTPMailer struct {
	dialer  sender
	from    string
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	return newSMTPMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, logger)
}

func newSMTPMailer(d sender, cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}
	return &SMTPMailer{
		dialer:  d,
		from:    from,
		logger:  logger,
		timeout: 10 * time.Second,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
			},
		}),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	ctx, span := otel.Tracer("Mailer").Start(ctx, "Send")
	defer span.End()

	l := m.logger.With(slog.String("method", "Send"), slog.String("to", msg.To))

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := m.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, m.dialer.DialAndSend(gm)
		})
		done <- err
	}()

	select {
	case <-ctx.Done():
		l.WarnContext(ctx, "Email send cancelled", slog.Any("error", ctx.Err()))
		span.SetStatus(codes.Error, "cancelled")
		return ctx.Err()
	case err := <-done:
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				l.WarnContext(ctx, "SMTP breaker open, email not sent")
			} else {
				l.ErrorContext(ctx, "Failed to send email", slog.Any("error", err))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "send failed")
			return fmt.Errorf("sending email: %w", err)
		}
		l.InfoContext(ctx, "Email sent", slog.String("subject", msg.Subject))
		return nil
	}
}
