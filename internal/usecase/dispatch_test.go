package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
	"github.com/user/agro-alert/internal/domain/mocks"
)

// stubTranslator marks translated strings so tests can assert the
// localization step ran without pulling in the real catalog.
type stubTranslator struct{}

func (stubTranslator) Translate(key, locale string) string {
	return key + "|" + locale
}

func newDispatchFixture() (*DispatchUseCase, *mocks.MockEmailSender, *mocks.MockSMSSender, *mocks.MockPushSender) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	email := &mocks.MockEmailSender{}
	sms := &mocks.MockSMSSender{}
	push := &mocks.MockPushSender{}
	uc := NewDispatchUseCase(stubTranslator{}, email, sms, push, logger, metrics.NewTestMetrics())
	return uc, email, sms, push
}

func notificationJob(ch domain.Channel, recipient string) domain.NotificationJobPayload {
	return domain.NotificationJobPayload{
		Channel:   ch,
		Recipient: recipient,
		Locale:    "es",
		RuleID:    "rule-1",
		Payload: domain.NotificationPayload{
			Title:            "alert.title.frost",
			Message:          "temperature -1.0 below min 2.0",
			NotificationType: "frost",
			Priority:         domain.PriorityUrgent,
		},
	}
}

func TestDispatchUseCase_Execute(t *testing.T) {
	t.Run("Email Is Localized And Rendered", func(t *testing.T) {
		uc, email, _, _ := newDispatchFixture()

		err := uc.Execute(context.Background(), notificationJob(domain.ChannelEmail, "grower@example.com"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(email.Sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(email.Sent))
		}
		sent := email.Sent[0]
		if sent.Address != "grower@example.com" {
			t.Errorf("address: got %q", sent.Address)
		}
		if sent.Subject != "alert.title.frost|es" {
			t.Errorf("subject must be the localized title, got %q", sent.Subject)
		}
		if !strings.Contains(sent.HTMLBody, "#c62828") {
			t.Error("urgent email must carry the urgent banner color")
		}
		if !strings.Contains(sent.HTMLBody, "URGENT") {
			t.Error("email banner must show the priority label")
		}
	})

	t.Run("SMS Uses Compact Form", func(t *testing.T) {
		uc, _, sms, _ := newDispatchFixture()

		err := uc.Execute(context.Background(), notificationJob(domain.ChannelSMS, "+84901234567"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(sms.Sent) != 1 {
			t.Fatalf("expected 1 sms, got %d", len(sms.Sent))
		}
		if !strings.HasPrefix(sms.Sent[0].Text, "[URGENT] alert.title.frost|es:") {
			t.Errorf("unexpected sms text: %q", sms.Sent[0].Text)
		}
	})

	t.Run("Push Sends Localized Title And Body", func(t *testing.T) {
		uc, _, _, push := newDispatchFixture()

		err := uc.Execute(context.Background(), notificationJob(domain.ChannelPush, "user-1"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(push.Sent) != 1 {
			t.Fatalf("expected 1 push, got %d", len(push.Sent))
		}
		if push.Sent[0].UserID != "user-1" || push.Sent[0].Title != "alert.title.frost|es" {
			t.Errorf("unexpected push: %+v", push.Sent[0])
		}
	})

	t.Run("Transport Failure Propagates For Retry", func(t *testing.T) {
		uc, email, _, _ := newDispatchFixture()
		sendErr := errors.New("smtp refused")
		email.SendErr = sendErr

		err := uc.Execute(context.Background(), notificationJob(domain.ChannelEmail, "grower@example.com"))
		if !errors.Is(err, sendErr) {
			t.Fatalf("expected transport error to propagate, got %v", err)
		}
	})

	t.Run("Unknown Channel Is Dropped Without Error", func(t *testing.T) {
		uc, email, sms, push := newDispatchFixture()

		err := uc.Execute(context.Background(), notificationJob(domain.Channel("pager"), "x"))
		if err != nil {
			t.Fatalf("unknown channel must not error, got %v", err)
		}
		if len(email.Sent)+len(sms.Sent)+len(push.Sent) != 0 {
			t.Error("unknown channel must not reach any transport")
		}
	})
}

func TestRenderSMS(t *testing.T) {
	t.Run("Short Message Kept Intact", func(t *testing.T) {
		got := RenderSMS("Frost warning", "temperature -1.0 below min 2.0", domain.PriorityHigh)
		want := "[HIGH] Frost warning: temperature -1.0 below min 2.0"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("Long Message Truncated To One Segment", func(t *testing.T) {
		got := RenderSMS("Frost warning", strings.Repeat("x", 300), domain.PriorityHigh)
		if n := len([]rune(got)); n != 160 {
			t.Errorf("expected 160 runes, got %d", n)
		}
		if !strings.HasSuffix(got, "…") {
			t.Error("truncated sms must end with an ellipsis")
		}
	})

	t.Run("Newlines Flattened", func(t *testing.T) {
		got := RenderSMS("Alert", "line one\nline two", domain.PriorityLow)
		if strings.Contains(got, "\n") {
			t.Errorf("sms must be single line, got %q", got)
		}
	})
}

func TestRenderEmail(t *testing.T) {
	t.Run("Escapes Untrusted Content", func(t *testing.T) {
		body, err := RenderEmail("<script>x</script>", "msg", domain.PriorityMedium)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(body, "<script>") {
			t.Error("html in the title must be escaped")
		}
	})

	t.Run("Unknown Priority Falls Back To Medium Banner", func(t *testing.T) {
		body, err := RenderEmail("t", "m", domain.Priority("mystery"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(body, "#2e7d32") {
			t.Error("expected the medium banner color")
		}
	})
}
