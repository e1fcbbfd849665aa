package domain

import (
	"context"
	"encoding/json"
	"time"
)

// JobKind routes a job to its handler and its worker pool.
type JobKind string

const (
	JobWeatherUpdate  JobKind = "weather-update"
	JobAlertCheck     JobKind = "alert-check"
	JobRecommendation JobKind = "recommendation"
	JobNotification   JobKind = "notification"
)

// JobKinds lists every kind the queue must provision a stream and worker
// pool for.
var JobKinds = []JobKind{JobWeatherUpdate, JobAlertCheck, JobRecommendation, JobNotification}

// Job is one unit of queued work. Payload is the JSON encoding of the
// kind-specific payload struct below.
type Job struct {
	ID         string          `json:"job_id"`
	Kind       JobKind         `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	// StreamMessageID is set by the durable queue when the job is read from
	// its stream, and is needed to acknowledge it. Not marshalled.
	StreamMessageID string `json:"-"`
}

// AlertCheckPayload asks the orchestrator to evaluate one rule. Recipient
// details ride along so the check does not depend on user persistence.
type AlertCheckPayload struct {
	RuleID    string `json:"rule_id"`
	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// WeatherUpdatePayload asks the refresher to re-fetch one location.
type WeatherUpdatePayload struct {
	LocationID string `json:"location_id"`
}

// RecommendationPayload asks for a daily advisory for one farm.
type RecommendationPayload struct {
	FarmID string `json:"farm_id"`
}

// NotificationJobPayload carries one fully rendered, channel-specific
// delivery. Transports never see raw rule or reading data.
type NotificationJobPayload struct {
	Channel   Channel             `json:"channel"`
	Recipient string              `json:"recipient"`
	Locale    string              `json:"locale,omitempty"`
	RuleID    string              `json:"rule_id,omitempty"`
	Payload   NotificationPayload `json:"payload"`
}

// JobHandler processes one job attempt. A nil return acknowledges the job;
// an error hands it back to the queue for retry or dead-lettering.
type JobHandler func(ctx context.Context, job Job) error

// JobQueue abstracts the job transport so the orchestrator and dispatcher
// are not wired to a specific broker. The durable Redis Streams backend is
// the production target; the in-memory synchronous backend is a test
// harness.
type JobQueue interface {
	// Enqueue marshals payload and submits one job of the given kind,
	// returning the job id.
	Enqueue(ctx context.Context, kind JobKind, payload any) (string, error)

	// RegisterHandler binds the single handler for a kind. Must be called
	// before the queue starts consuming.
	RegisterHandler(kind JobKind, handler JobHandler)
}
