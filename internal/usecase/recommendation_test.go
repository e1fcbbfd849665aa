package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/user/agro-alert/internal/domain"
	"github.com/user/agro-alert/internal/domain/mocks"
)

func TestRecommendationUseCase_Execute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	farm := domain.Farm{
		ID:         "farm-1",
		Name:       "Delta Rice",
		LocationID: "loc-1",
		Owner:      domain.Contact{Email: "owner@example.com", Locale: "vi"},
	}

	t.Run("Advice Becomes Low Priority Email", func(t *testing.T) {
		farms := &mocks.MockFarmRepository{Farms: []domain.Farm{farm}}
		queue := &mocks.MockJobQueue{}
		advisor := &mocks.MockAdvisor{Advice: "Irrigate in the early morning."}
		uc := NewRecommendationUseCase(farms, &mocks.MockWeatherFetcher{}, advisor, queue, logger)

		err := uc.Execute(context.Background(), domain.RecommendationPayload{FarmID: "farm-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		jobs := queue.ByKind(domain.JobNotification)
		if len(jobs) != 1 {
			t.Fatalf("expected 1 notification job, got %d", len(jobs))
		}
		var p domain.NotificationJobPayload
		if err := json.Unmarshal(jobs[0].Payload, &p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if p.Channel != domain.ChannelEmail || p.Recipient != "owner@example.com" {
			t.Errorf("unexpected delivery target: %+v", p)
		}
		if p.Payload.Priority != domain.PriorityLow {
			t.Errorf("priority: got %q, want low", p.Payload.Priority)
		}
		if p.Payload.Message != "Irrigate in the early morning." {
			t.Errorf("message: got %q", p.Payload.Message)
		}
	})

	t.Run("Missing Farm Is A No-Op", func(t *testing.T) {
		farms := &mocks.MockFarmRepository{Farms: []domain.Farm{farm}}
		queue := &mocks.MockJobQueue{}
		uc := NewRecommendationUseCase(farms, &mocks.MockWeatherFetcher{}, &mocks.MockAdvisor{Advice: "x"}, queue, logger)

		err := uc.Execute(context.Background(), domain.RecommendationPayload{FarmID: "gone"})
		if err != nil {
			t.Fatalf("vanished farm must not error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("vanished farm must not enqueue")
		}
	})

	t.Run("Empty Advice Sends Nothing", func(t *testing.T) {
		farms := &mocks.MockFarmRepository{Farms: []domain.Farm{farm}}
		queue := &mocks.MockJobQueue{}
		uc := NewRecommendationUseCase(farms, &mocks.MockWeatherFetcher{}, &mocks.MockAdvisor{}, queue, logger)

		if err := uc.Execute(context.Background(), domain.RecommendationPayload{FarmID: "farm-1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("empty advice must not enqueue")
		}
	})

	t.Run("Advisor Failure Is Retryable", func(t *testing.T) {
		farms := &mocks.MockFarmRepository{Farms: []domain.Farm{farm}}
		advErr := errors.New("advisor timeout")
		uc := NewRecommendationUseCase(farms, &mocks.MockWeatherFetcher{}, &mocks.MockAdvisor{RecommendErr: advErr}, &mocks.MockJobQueue{}, logger)

		err := uc.Execute(context.Background(), domain.RecommendationPayload{FarmID: "farm-1"})
		if !errors.Is(err, advErr) {
			t.Fatalf("expected advisor error to propagate, got %v", err)
		}
	})

	t.Run("Owner Without Email Drops Recommendation", func(t *testing.T) {
		noEmail := farm
		noEmail.Owner.Email = ""
		farms := &mocks.MockFarmRepository{Farms: []domain.Farm{noEmail}}
		queue := &mocks.MockJobQueue{}
		uc := NewRecommendationUseCase(farms, &mocks.MockWeatherFetcher{}, &mocks.MockAdvisor{Advice: "x"}, queue, logger)

		if err := uc.Execute(context.Background(), domain.RecommendationPayload{FarmID: "farm-1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(queue.Enqueued) != 0 {
			t.Error("missing owner email must not enqueue")
		}
	})
}
