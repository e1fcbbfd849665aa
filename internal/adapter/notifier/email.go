package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// EmailSender delivers HTML email over SMTP. A token-bucket limiter keeps
// bursts of firings inside the relay's sending quota.
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	fromName string
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	RateLimit rate.Limit
	Burst     int
}

// NewEmailSender creates an SMTP email sender.
func NewEmailSender(cfg EmailConfig, logger *slog.Logger) *EmailSender {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5 // messages per second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &EmailSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		fromName: cfg.FromName,
		logger:   logger.With("component", "email_sender"),
		limiter:  rate.NewLimiter(cfg.RateLimit, cfg.Burst),
	}
}

// SendEmail delivers one HTML message. The context bounds both the limiter
// wait and, via the caller's handler timeout, the SMTP exchange.
func (s *EmailSender) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	if !strings.Contains(address, "@") {
		return fmt.Errorf("invalid email address: %s", address)
	}
	if s.host == "" || s.port == 0 || s.username == "" {
		return fmt.Errorf("smtp transport not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limiter: %w", err)
	}

	from := s.username
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.username)
	}
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + address,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.username, []string{address}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", address, err)
	}
	s.logger.Debug("email sent", "to", address)
	return nil
}
