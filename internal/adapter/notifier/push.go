package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// PushSender delivers push notifications through an FCM-style REST
// endpoint that resolves user ids to device tokens server-side.
type PushSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
}

// PushConfig holds the push gateway settings.
type PushConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
	RateLimit rate.Limit
	Burst     int
}

// NewPushSender creates a push sender.
func NewPushSender(cfg PushConfig, logger *slog.Logger) *PushSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20 // messages per second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}
	return &PushSender{
		endpoint:   cfg.Endpoint,
		serverKey:  cfg.ServerKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "push_sender"),
		limiter:    rate.NewLimiter(cfg.RateLimit, cfg.Burst),
	}
}

type pushMessage struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// SendPush delivers one push notification.
func (s *PushSender) SendPush(ctx context.Context, userID, title, body string) error {
	if s.endpoint == "" {
		return fmt.Errorf("push transport not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("push rate limiter: %w", err)
	}

	payload, err := json.Marshal(pushMessage{UserID: userID, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.serverKey != "" {
		req.Header.Set("Authorization", "key="+s.serverKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push to user %s: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d for user %s", resp.StatusCode, userID)
	}
	s.logger.Debug("push sent", "user_id", userID)
	return nil
}
