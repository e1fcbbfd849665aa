package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
)

// DefaultCooldownWindow is the minimum time between two notifications fired
// by the same rule.
const DefaultCooldownWindow = time.Hour

// CheckRuleUseCase is the alert monitoring orchestrator: for one alert-check
// job it loads the rule, fetches the current reading, evaluates the
// thresholds, advances the cooldown state, and fans the firing out as one
// notification job per enabled channel.
type CheckRuleUseCase struct {
	rules    domain.RuleRepository
	weather  domain.WeatherFetcher
	queue    domain.JobQueue
	logger   *slog.Logger
	metrics  *metrics.PipelineMetrics
	cooldown time.Duration
	now      func() time.Time
}

// NewCheckRuleUseCase creates the orchestrator. A non-positive cooldown
// falls back to DefaultCooldownWindow.
func NewCheckRuleUseCase(rules domain.RuleRepository, weather domain.WeatherFetcher, queue domain.JobQueue, logger *slog.Logger, m *metrics.PipelineMetrics, cooldown time.Duration) *CheckRuleUseCase {
	if cooldown <= 0 {
		cooldown = DefaultCooldownWindow
	}
	return &CheckRuleUseCase{
		rules:    rules,
		weather:  weather,
		queue:    queue,
		logger:   logger.With("component", "check_rule"),
		metrics:  m,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Execute runs one rule check. It returns an error only for failures the
// queue should retry (collaborator lookups); a missing or inactive rule and
// a cooldown suppression are expected steady states and succeed silently.
func (uc *CheckRuleUseCase) Execute(ctx context.Context, p domain.AlertCheckPayload) error {
	rule, err := uc.rules.GetRule(ctx, p.RuleID)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return nil
		}
		return fmt.Errorf("load rule %s: %w", p.RuleID, err)
	}
	if !rule.IsActive {
		return nil
	}

	reading, err := uc.weather.FetchCurrentReading(ctx, rule.LocationID)
	if err != nil {
		return fmt.Errorf("fetch reading for location %s: %w", rule.LocationID, err)
	}

	verdict := Evaluate(*rule, reading)
	for _, q := range verdict.Malformed {
		uc.logger.Warn("malformed threshold band, quantity skipped",
			"rule_id", rule.ID, "quantity", string(q))
	}
	if !verdict.Breached {
		return nil
	}

	now := uc.now().UTC()
	if rule.InCooldown(now, uc.cooldown) {
		uc.metrics.CooldownSuppressed.Inc()
		uc.logger.Debug("breach suppressed by cooldown", "rule_id", rule.ID)
		return nil
	}

	// The conditional write must commit before any notification job exists.
	// Losing the compare-and-set means a concurrent check already fired.
	fired, err := uc.rules.MarkFired(ctx, rule.ID, rule.LastFiredAt, now)
	if err != nil {
		return fmt.Errorf("mark rule %s fired: %w", rule.ID, err)
	}
	if !fired {
		uc.metrics.CooldownSuppressed.Inc()
		uc.logger.Debug("breach suppressed by concurrent firing", "rule_id", rule.ID)
		return nil
	}

	uc.metrics.BreachesTotal.WithLabelValues(string(rule.RuleType)).Inc()
	payload := buildPayload(*rule, verdict)

	contact := recipientContact(*rule, p)
	for _, ch := range rule.Channels.Enabled() {
		recipient := recipientFor(ch, contact)
		if recipient == "" {
			uc.logger.Warn("channel enabled but recipient missing",
				"rule_id", rule.ID, "channel", string(ch))
			continue
		}
		job := domain.NotificationJobPayload{
			Channel:   ch,
			Recipient: recipient,
			Locale:    contact.Locale,
			RuleID:    rule.ID,
			Payload:   payload,
		}
		// Past this point the firing is already recorded; a failed enqueue
		// is a missed notification, never a duplicate, and must not block
		// sibling channels.
		if _, err := uc.queue.Enqueue(ctx, domain.JobNotification, job); err != nil {
			uc.logger.Error("failed to enqueue notification job",
				"rule_id", rule.ID, "channel", string(ch), "error", err)
		}
	}
	uc.logger.Info("rule fired", "rule_id", rule.ID, "rule_type", string(rule.RuleType),
		"priority", string(payload.Priority), "fired_at", now)
	return nil
}

// recipientContact prefers addresses carried in the job payload and falls
// back to the contact hydrated with the rule.
func recipientContact(rule domain.AlertRule, p domain.AlertCheckPayload) domain.Contact {
	c := rule.Contact
	if p.UserEmail != "" {
		c.Email = p.UserEmail
	}
	if p.Phone != "" {
		c.Phone = p.Phone
	}
	if p.UserID != "" {
		c.UserID = p.UserID
	}
	if p.Locale != "" {
		c.Locale = p.Locale
	}
	return c
}

func recipientFor(ch domain.Channel, c domain.Contact) string {
	switch ch {
	case domain.ChannelEmail:
		return c.Email
	case domain.ChannelSMS:
		return c.Phone
	case domain.ChannelPush:
		return c.UserID
	}
	return ""
}

// buildPayload renders the channel-agnostic notification content for a
// firing, with the priority derived from the rule type and the reading.
func buildPayload(rule domain.AlertRule, verdict Verdict) domain.NotificationPayload {
	parts := make([]string, 0, len(verdict.Violations))
	for _, v := range verdict.Violations {
		parts = append(parts, v.String())
	}
	return domain.NotificationPayload{
		Title:            fmt.Sprintf("alert.title.%s", rule.RuleType),
		Message:          strings.Join(parts, "; "),
		NotificationType: string(rule.RuleType),
		Priority:         derivePriority(rule.RuleType, verdict),
	}
}

func derivePriority(ruleType domain.RuleType, verdict Verdict) domain.Priority {
	switch ruleType {
	case domain.RuleFrost:
		for _, v := range verdict.Violations {
			if v.Quantity == domain.QuantityTemperature && v.Value < 0 {
				return domain.PriorityUrgent
			}
		}
		return domain.PriorityHigh
	case domain.RuleHeat, domain.RuleWind:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}
