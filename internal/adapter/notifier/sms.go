package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// SMSSender delivers text messages through a Twilio-compatible REST API.
type SMSSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
}

// SMSConfig holds the SMS gateway settings.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
	RateLimit  rate.Limit
	Burst      int
}

// NewSMSSender creates an SMS sender.
func NewSMSSender(cfg SMSConfig, logger *slog.Logger) *SMSSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1 // messages per second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &SMSSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "sms_sender"),
		limiter:    rate.NewLimiter(cfg.RateLimit, cfg.Burst),
	}
}

// SendSMS delivers one text message.
func (s *SMSSender) SendSMS(ctx context.Context, number, text string) error {
	if !strings.HasPrefix(number, "+") {
		return fmt.Errorf("invalid phone number: %s", number)
	}
	if s.accountSID == "" || s.authToken == "" || s.fromNumber == "" {
		return fmt.Errorf("sms transport not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	form := url.Values{}
	form.Set("To", number)
	form.Set("From", s.fromNumber)
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", number, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway returned status %d for %s", resp.StatusCode, number)
	}
	s.logger.Debug("sms sent", "to", number)
	return nil
}
