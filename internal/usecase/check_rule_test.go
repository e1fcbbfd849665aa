package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
	"github.com/user/agro-alert/internal/domain/mocks"
)

func frostRule() *domain.AlertRule {
	return &domain.AlertRule{
		ID:         "rule-1",
		OwnerID:    "user-1",
		LocationID: "loc-1",
		RuleType:   domain.RuleFrost,
		Thresholds: domain.Thresholds{Temperature: &domain.Band{Min: f(2.0)}},
		Channels:   domain.ChannelSet{Email: true, SMS: true, Push: true},
		IsActive:   true,
		Contact: domain.Contact{
			Email:  "grower@example.com",
			Phone:  "+84901234567",
			UserID: "user-1",
			Locale: "vi",
		},
	}
}

func newCheckFixture(rule *domain.AlertRule, reading domain.Reading) (*CheckRuleUseCase, *mocks.MockRuleRepository, *mocks.MockJobQueue) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var repo *mocks.MockRuleRepository
	if rule != nil {
		repo = mocks.NewMockRuleRepository(rule)
	} else {
		repo = mocks.NewMockRuleRepository()
	}
	queue := &mocks.MockJobQueue{}
	fetcher := &mocks.MockWeatherFetcher{Reading: reading}
	uc := NewCheckRuleUseCase(repo, fetcher, queue, logger, metrics.NewTestMetrics(), time.Hour)
	return uc, repo, queue
}

func checkPayload(rule *domain.AlertRule) domain.AlertCheckPayload {
	return domain.AlertCheckPayload{
		RuleID:    rule.ID,
		UserID:    rule.Contact.UserID,
		UserEmail: rule.Contact.Email,
		Phone:     rule.Contact.Phone,
		Locale:    rule.Contact.Locale,
	}
}

func TestCheckRuleUseCase_Execute(t *testing.T) {
	t.Run("Breach Fans Out One Job Per Channel", func(t *testing.T) {
		rule := frostRule()
		uc, repo, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		jobs := queue.ByKind(domain.JobNotification)
		if len(jobs) != 3 {
			t.Fatalf("expected 3 notification jobs, got %d", len(jobs))
		}
		seen := map[domain.Channel]domain.NotificationJobPayload{}
		for _, j := range jobs {
			var p domain.NotificationJobPayload
			if err := json.Unmarshal(j.Payload, &p); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			seen[p.Channel] = p
		}
		if seen[domain.ChannelEmail].Recipient != "grower@example.com" {
			t.Errorf("email recipient: got %q", seen[domain.ChannelEmail].Recipient)
		}
		if seen[domain.ChannelSMS].Recipient != "+84901234567" {
			t.Errorf("sms recipient: got %q", seen[domain.ChannelSMS].Recipient)
		}
		if seen[domain.ChannelPush].Recipient != "user-1" {
			t.Errorf("push recipient: got %q", seen[domain.ChannelPush].Recipient)
		}
		for ch, p := range seen {
			if p.Locale != "vi" {
				t.Errorf("%s locale: got %q, want vi", ch, p.Locale)
			}
			if p.Payload.Title != "alert.title.frost" {
				t.Errorf("%s title: got %q", ch, p.Payload.Title)
			}
		}
		if repo.MarkCalls != 1 {
			t.Errorf("expected 1 MarkFired call, got %d", repo.MarkCalls)
		}
		if repo.Rules["rule-1"].LastFiredAt == nil {
			t.Error("expected LastFiredAt to be recorded")
		}
	})

	t.Run("Frost Below Zero Is Urgent", func(t *testing.T) {
		rule := frostRule()
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var p domain.NotificationJobPayload
		if err := json.Unmarshal(queue.Enqueued[0].Payload, &p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if p.Payload.Priority != domain.PriorityUrgent {
			t.Errorf("priority: got %q, want urgent", p.Payload.Priority)
		}
	})

	t.Run("Frost Above Zero Is High", func(t *testing.T) {
		rule := frostRule()
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(1.5)})

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var p domain.NotificationJobPayload
		if err := json.Unmarshal(queue.Enqueued[0].Payload, &p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if p.Payload.Priority != domain.PriorityHigh {
			t.Errorf("priority: got %q, want high", p.Payload.Priority)
		}
	})

	t.Run("No Breach Enqueues Nothing", func(t *testing.T) {
		rule := frostRule()
		uc, repo, queue := newCheckFixture(rule, domain.Reading{Temperature: f(10.0)})

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Errorf("expected no jobs, got %d", len(queue.Enqueued))
		}
		if repo.MarkCalls != 0 {
			t.Errorf("expected no MarkFired calls, got %d", repo.MarkCalls)
		}
	})

	t.Run("Cooldown Suppresses Repeat Firing", func(t *testing.T) {
		rule := frostRule()
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})
		base := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return base }

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("first check: %v", err)
		}
		uc.now = func() time.Time { return base.Add(30 * time.Minute) }
		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("second check: %v", err)
		}

		if got := len(queue.ByKind(domain.JobNotification)); got != 3 {
			t.Errorf("expected only the first firing's 3 jobs, got %d", got)
		}
	})

	t.Run("Firing Resumes After Cooldown Expires", func(t *testing.T) {
		rule := frostRule()
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})
		base := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return base }

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("first check: %v", err)
		}
		uc.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("second check: %v", err)
		}

		if got := len(queue.ByKind(domain.JobNotification)); got != 6 {
			t.Errorf("expected both firings to fan out, got %d jobs", got)
		}
	})

	t.Run("Lost Conditional Write Suppresses Firing", func(t *testing.T) {
		rule := frostRule()
		uc, repo, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})
		repo.ForceMark = true
		repo.MarkFiredOK = false

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Errorf("expected no jobs after lost write, got %d", len(queue.Enqueued))
		}
	})

	t.Run("Missing Rule Is A No-Op", func(t *testing.T) {
		uc, _, queue := newCheckFixture(nil, domain.Reading{Temperature: f(-1.0)})

		err := uc.Execute(context.Background(), domain.AlertCheckPayload{RuleID: "gone"})
		if err != nil {
			t.Fatalf("deleted rule must not error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("deleted rule must not enqueue")
		}
	})

	t.Run("Inactive Rule Is A No-Op", func(t *testing.T) {
		rule := frostRule()
		rule.IsActive = false
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("inactive rule must not error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("inactive rule must not enqueue")
		}
	})

	t.Run("Fetch Failure Is Retryable", func(t *testing.T) {
		rule := frostRule()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo := mocks.NewMockRuleRepository(rule)
		queue := &mocks.MockJobQueue{}
		fetchErr := errors.New("provider unreachable")
		fetcher := &mocks.MockWeatherFetcher{FetchErr: fetchErr}
		uc := NewCheckRuleUseCase(repo, fetcher, queue, logger, metrics.NewTestMetrics(), time.Hour)

		err := uc.Execute(context.Background(), checkPayload(rule))
		if !errors.Is(err, fetchErr) {
			t.Fatalf("expected fetch error to propagate, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("failed fetch must not enqueue")
		}
	})

	t.Run("Enqueue Failure After Firing Does Not Error", func(t *testing.T) {
		rule := frostRule()
		uc, repo, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})
		queue.EnqueueErr = errors.New("queue down")

		if err := uc.Execute(context.Background(), checkPayload(rule)); err != nil {
			t.Fatalf("post-firing enqueue failure must not surface, got %v", err)
		}
		if repo.Rules["rule-1"].LastFiredAt == nil {
			t.Error("firing must stay recorded even when enqueue fails")
		}
	})

	t.Run("Channel Without Recipient Is Skipped", func(t *testing.T) {
		rule := frostRule()
		rule.Contact.Phone = ""
		uc, _, queue := newCheckFixture(rule, domain.Reading{Temperature: f(-1.0)})
		p := checkPayload(rule)
		p.Phone = ""

		if err := uc.Execute(context.Background(), p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		jobs := queue.ByKind(domain.JobNotification)
		if len(jobs) != 2 {
			t.Fatalf("expected email and push only, got %d jobs", len(jobs))
		}
	})
}
