package domain

import (
	"context"
	"errors"
	"time"
)

// ErrRuleNotFound is returned when a rule id does not resolve. The
// orchestrator treats it as "no longer applicable", not as a failure.
var ErrRuleNotFound = errors.New("alert rule not found")

// RuleRepository is the persistence contract for alert rules. Rule CRUD is
// owned by the management API; this pipeline only reads rules and advances
// their cooldown state.
type RuleRepository interface {
	// GetRule loads one rule with its owner contact hydrated. Returns
	// ErrRuleNotFound when the id does not exist.
	GetRule(ctx context.Context, id string) (*AlertRule, error)

	// ListActiveRules returns every active rule, used by the recurring
	// alert-check cadence.
	ListActiveRules(ctx context.Context) ([]AlertRule, error)

	// MarkFired conditionally sets last_fired_at to firedAt, keyed on the
	// previously observed value. It returns false when another evaluation
	// won the write, in which case the caller must not fire. The write is
	// committed before it returns.
	MarkFired(ctx context.Context, id string, prev *time.Time, firedAt time.Time) (bool, error)
}

// FarmRepository lists the farms tracked for the daily recommendation
// cadence. Farm CRUD is out of scope.
type FarmRepository interface {
	ListFarms(ctx context.Context) ([]Farm, error)
}

// WeatherFetcher supplies the current reading for a location. The
// production implementation fronts the upstream provider with a short-TTL
// cache.
type WeatherFetcher interface {
	FetchCurrentReading(ctx context.Context, locationID string) (Reading, error)
}

// ReadingCache stores recent readings with a TTL so repeated checks for
// the same location do not hammer the upstream provider.
type ReadingCache interface {
	// Get returns the cached reading, or (nil, nil) on a miss.
	Get(ctx context.Context, locationID string) (*Reading, error)
	Put(ctx context.Context, reading Reading, ttl time.Duration) error
}

// Translator resolves a message key for a locale. Implementations must
// return the key verbatim when no translation exists; delivery never
// blocks on a missing translation.
type Translator interface {
	Translate(key, locale string) string
}

// EmailSender delivers one rendered HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, htmlBody string) error
}

// SMSSender delivers one single-line text message.
type SMSSender interface {
	SendSMS(ctx context.Context, number, text string) error
}

// PushSender delivers one push notification addressed by user id.
type PushSender interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

// Advisor is the external recommendation-text collaborator. Generating the
// advisory content is out of scope; the pipeline only schedules and
// delivers it.
type Advisor interface {
	Recommend(ctx context.Context, farm Farm, reading Reading) (string, error)
}
