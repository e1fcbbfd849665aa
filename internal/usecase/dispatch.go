package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
)

// DispatchUseCase delivers one rendered notification over one channel.
// Each channel of a firing arrives as its own job, so a failing transport
// never holds back its siblings; the queue retries and dead-letters each
// job independently.
type DispatchUseCase struct {
	translator domain.Translator
	email      domain.EmailSender
	sms        domain.SMSSender
	push       domain.PushSender
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics
}

// NewDispatchUseCase creates the dispatcher.
func NewDispatchUseCase(translator domain.Translator, email domain.EmailSender, sms domain.SMSSender, push domain.PushSender, logger *slog.Logger, m *metrics.PipelineMetrics) *DispatchUseCase {
	return &DispatchUseCase{
		translator: translator,
		email:      email,
		sms:        sms,
		push:       push,
		logger:     logger.With("component", "dispatch"),
		metrics:    m,
	}
}

// Execute localizes the payload, renders it for the job's channel, and
// invokes the channel transport. Transport errors propagate so the queue
// can retry.
func (uc *DispatchUseCase) Execute(ctx context.Context, p domain.NotificationJobPayload) error {
	title := uc.translator.Translate(p.Payload.Title, p.Locale)
	message := uc.translator.Translate(p.Payload.Message, p.Locale)

	var err error
	switch p.Channel {
	case domain.ChannelEmail:
		var body string
		body, err = RenderEmail(title, message, p.Payload.Priority)
		if err == nil {
			err = uc.email.SendEmail(ctx, p.Recipient, title, body)
		}
	case domain.ChannelSMS:
		err = uc.sms.SendSMS(ctx, p.Recipient, RenderSMS(title, message, p.Payload.Priority))
	case domain.ChannelPush:
		err = uc.push.SendPush(ctx, p.Recipient, title, message)
	default:
		// Unknown channels cannot succeed on retry; drop with a log.
		uc.logger.Error("unknown notification channel", "channel", string(p.Channel), "rule_id", p.RuleID)
		return nil
	}

	if err != nil {
		uc.metrics.NotificationsTotal.WithLabelValues(string(p.Channel), "error").Inc()
		uc.logger.Warn("notification delivery failed",
			"channel", string(p.Channel), "rule_id", p.RuleID, "error", err)
		return fmt.Errorf("send %s notification: %w", p.Channel, err)
	}

	uc.metrics.NotificationsTotal.WithLabelValues(string(p.Channel), "sent").Inc()
	uc.logger.Info("notification delivered",
		"channel", string(p.Channel), "rule_id", p.RuleID, "priority", string(p.Payload.Priority))
	return nil
}
