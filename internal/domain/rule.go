package domain

import (
	"time"
)

// RuleType classifies the environmental condition a rule watches for.
type RuleType string

const (
	RuleFrost     RuleType = "frost"
	RuleHeat      RuleType = "heat"
	RuleDrought   RuleType = "drought"
	RuleHeavyRain RuleType = "heavy_rain"
	RuleWind      RuleType = "wind"
	RuleHail      RuleType = "hail"
	RuleCustom    RuleType = "custom"
)

// Quantity identifies a measurable environmental quantity.
type Quantity string

const (
	QuantityTemperature   Quantity = "temperature"
	QuantityHumidity      Quantity = "humidity"
	QuantityPrecipitation Quantity = "precipitation"
	QuantityWindSpeed     Quantity = "wind_speed"
)

// Band is an optional [Min, Max] tolerance band for one quantity.
// A nil bound means that side is unchecked. A reading strictly below Min
// or strictly above Max breaches the band.
type Band struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Malformed reports whether both bounds are set and inverted. Such a band
// must never breach; rule creation validates this upstream, but the
// evaluator tolerates it.
func (b Band) Malformed() bool {
	return b.Min != nil && b.Max != nil && *b.Min > *b.Max
}

// Thresholds holds one optional band per measurable quantity. It is a fixed
// set rather than an open map so evaluation is exhaustively checkable.
type Thresholds struct {
	Temperature   *Band `json:"temperature,omitempty"`
	Humidity      *Band `json:"humidity,omitempty"`
	Precipitation *Band `json:"precipitation,omitempty"`
	WindSpeed     *Band `json:"wind_speed,omitempty"`
}

// Empty reports whether no quantity is configured at all.
func (t Thresholds) Empty() bool {
	return t.Temperature == nil && t.Humidity == nil && t.Precipitation == nil && t.WindSpeed == nil
}

// ChannelSet records which notification channels a rule has enabled.
type ChannelSet struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// Enabled returns the enabled channels in a stable order.
func (c ChannelSet) Enabled() []Channel {
	var out []Channel
	if c.Email {
		out = append(out, ChannelEmail)
	}
	if c.SMS {
		out = append(out, ChannelSMS)
	}
	if c.Push {
		out = append(out, ChannelPush)
	}
	return out
}

// Contact carries the recipient addresses and locale for a rule's owner.
// It is hydrated from the user record when the rule is loaded; the pipeline
// never reaches into user persistence directly.
type Contact struct {
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// AlertRule is a persisted threshold specification tied to one user and one
// location. The pipeline mutates only LastFiredAt; everything else is owned
// by the rule-management API.
type AlertRule struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	LocationID  string     `json:"location_id"`
	RuleType    RuleType   `json:"rule_type"`
	Thresholds  Thresholds `json:"thresholds"`
	Channels    ChannelSet `json:"channels"`
	IsActive    bool       `json:"is_active"`
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
	Contact     Contact    `json:"contact"`
}

// InCooldown reports whether the rule fired within the given window of now.
func (r *AlertRule) InCooldown(now time.Time, window time.Duration) bool {
	return r.LastFiredAt != nil && now.Sub(*r.LastFiredAt) < window
}

// Farm is the minimal view of a farm record needed by the recurring
// recommendation cadence. Farm CRUD lives outside this service.
type Farm struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	LocationID string  `json:"location_id"`
	Owner      Contact `json:"owner"`
}
