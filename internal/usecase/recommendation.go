package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/agro-alert/internal/domain"
)

// RecommendationUseCase handles the daily recommendation job for one farm:
// it fetches the latest reading, asks the external advisor collaborator for
// advisory text, and enqueues a low-priority email notification to the farm
// owner.
type RecommendationUseCase struct {
	farms   domain.FarmRepository
	weather domain.WeatherFetcher
	advisor domain.Advisor
	queue   domain.JobQueue
	logger  *slog.Logger
}

// NewRecommendationUseCase creates the recommendation handler.
func NewRecommendationUseCase(farms domain.FarmRepository, weather domain.WeatherFetcher, advisor domain.Advisor, queue domain.JobQueue, logger *slog.Logger) *RecommendationUseCase {
	return &RecommendationUseCase{
		farms:   farms,
		weather: weather,
		advisor: advisor,
		queue:   queue,
		logger:  logger.With("component", "recommendation"),
	}
}

// Execute produces one advisory for one farm. A farm that disappeared since
// scheduling is a silent no-op; collaborator failures are retryable.
func (uc *RecommendationUseCase) Execute(ctx context.Context, p domain.RecommendationPayload) error {
	farm, ok, err := uc.findFarm(ctx, p.FarmID)
	if err != nil {
		return fmt.Errorf("load farm %s: %w", p.FarmID, err)
	}
	if !ok {
		return nil
	}

	reading, err := uc.weather.FetchCurrentReading(ctx, farm.LocationID)
	if err != nil {
		return fmt.Errorf("fetch reading for farm %s: %w", farm.ID, err)
	}

	advice, err := uc.advisor.Recommend(ctx, farm, reading)
	if err != nil {
		return fmt.Errorf("generate recommendation for farm %s: %w", farm.ID, err)
	}
	if advice == "" {
		uc.logger.Debug("advisor returned no recommendation", "farm_id", farm.ID)
		return nil
	}
	if farm.Owner.Email == "" {
		uc.logger.Warn("farm owner has no email address, recommendation dropped", "farm_id", farm.ID)
		return nil
	}

	job := domain.NotificationJobPayload{
		Channel:   domain.ChannelEmail,
		Recipient: farm.Owner.Email,
		Locale:    farm.Owner.Locale,
		Payload: domain.NotificationPayload{
			Title:            "recommendation.title",
			Message:          advice,
			NotificationType: "recommendation",
			Priority:         domain.PriorityLow,
		},
	}
	if _, err := uc.queue.Enqueue(ctx, domain.JobNotification, job); err != nil {
		return fmt.Errorf("enqueue recommendation for farm %s: %w", farm.ID, err)
	}
	uc.logger.Info("recommendation enqueued", "farm_id", farm.ID)
	return nil
}

func (uc *RecommendationUseCase) findFarm(ctx context.Context, id string) (domain.Farm, bool, error) {
	farms, err := uc.farms.ListFarms(ctx)
	if err != nil {
		return domain.Farm{}, false, err
	}
	for _, f := range farms {
		if f.ID == id {
			return f, true, nil
		}
	}
	return domain.Farm{}, false, nil
}
