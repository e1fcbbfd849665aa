package memqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/user/agro-alert/internal/domain"
)

func TestQueue_Enqueue(t *testing.T) {
	t.Run("Runs Handler Synchronously", func(t *testing.T) {
		q := New()
		var got domain.WeatherUpdatePayload
		q.RegisterHandler(domain.JobWeatherUpdate, func(ctx context.Context, job domain.Job) error {
			return json.Unmarshal(job.Payload, &got)
		})

		id, err := q.Enqueue(context.Background(), domain.JobWeatherUpdate, domain.WeatherUpdatePayload{LocationID: "loc-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id == "" {
			t.Error("expected a job id")
		}
		if got.LocationID != "loc-1" {
			t.Errorf("expected handler to see loc-1, got %q", got.LocationID)
		}
	})

	t.Run("Handler Error Surfaces", func(t *testing.T) {
		q := New()
		wantErr := errors.New("transport down")
		q.RegisterHandler(domain.JobNotification, func(ctx context.Context, job domain.Job) error {
			return wantErr
		})

		_, err := q.Enqueue(context.Background(), domain.JobNotification, domain.NotificationJobPayload{})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected handler error, got %v", err)
		}
	})

	t.Run("Unregistered Kind Fails", func(t *testing.T) {
		q := New()
		_, err := q.Enqueue(context.Background(), domain.JobAlertCheck, domain.AlertCheckPayload{RuleID: "r1"})
		if err == nil {
			t.Fatal("expected an error for an unregistered kind")
		}
	})

	t.Run("Re-entrant Enqueue", func(t *testing.T) {
		q := New()
		var delivered []string
		q.RegisterHandler(domain.JobNotification, func(ctx context.Context, job domain.Job) error {
			var p domain.NotificationJobPayload
			if err := json.Unmarshal(job.Payload, &p); err != nil {
				return err
			}
			delivered = append(delivered, p.Recipient)
			return nil
		})
		q.RegisterHandler(domain.JobAlertCheck, func(ctx context.Context, job domain.Job) error {
			_, err := q.Enqueue(ctx, domain.JobNotification, domain.NotificationJobPayload{Recipient: "farmer@example.com"})
			return err
		})

		if _, err := q.Enqueue(context.Background(), domain.JobAlertCheck, domain.AlertCheckPayload{RuleID: "r1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(delivered) != 1 || delivered[0] != "farmer@example.com" {
			t.Errorf("expected one nested delivery, got %v", delivered)
		}
	})
}
