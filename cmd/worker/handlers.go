package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/agro-alert/internal/adapter/i18n"
	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
	"github.com/user/agro-alert/internal/pkg/config"
	"github.com/user/agro-alert/internal/usecase"
)

// handlers adapts the use cases to the queue's JobHandler signature: each
// handler decodes its kind's payload and delegates. A payload that cannot
// be decoded can never succeed on retry, so decode failures are returned
// as ordinary errors and run out their attempt budget.
type handlers struct {
	checkUC     *usecase.CheckRuleUseCase
	refreshUC   *usecase.RefreshWeatherUseCase
	recommendUC *usecase.RecommendationUseCase
	dispatchUC  *usecase.DispatchUseCase
}

func usecaseBundle(
	queue domain.JobQueue,
	rules domain.RuleRepository,
	farms domain.FarmRepository,
	cachedFetcher domain.WeatherFetcher,
	provider domain.WeatherFetcher,
	cache domain.ReadingCache,
	adv domain.Advisor,
	email domain.EmailSender,
	sms domain.SMSSender,
	push domain.PushSender,
	log *slog.Logger,
	m *metrics.PipelineMetrics,
	cfg *config.Config,
) *handlers {
	translator := i18n.New()
	return &handlers{
		checkUC:     usecase.NewCheckRuleUseCase(rules, cachedFetcher, queue, log, m, cfg.CooldownWindow),
		refreshUC:   usecase.NewRefreshWeatherUseCase(provider, cache, log, cfg.WeatherCacheTTL),
		recommendUC: usecase.NewRecommendationUseCase(farms, cachedFetcher, adv, queue, log),
		dispatchUC:  usecase.NewDispatchUseCase(translator, email, sms, push, log, m),
	}
}

func (h *handlers) checkRule(ctx context.Context, job domain.Job) error {
	var p domain.AlertCheckPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode alert-check payload: %w", err)
	}
	return h.checkUC.Execute(ctx, p)
}

func (h *handlers) refreshWeather(ctx context.Context, job domain.Job) error {
	var p domain.WeatherUpdatePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode weather-update payload: %w", err)
	}
	return h.refreshUC.Execute(ctx, p)
}

func (h *handlers) recommend(ctx context.Context, job domain.Job) error {
	var p domain.RecommendationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode recommendation payload: %w", err)
	}
	return h.recommendUC.Execute(ctx, p)
}

func (h *handlers) dispatch(ctx context.Context, job domain.Job) error {
	var p domain.NotificationJobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode notification payload: %w", err)
	}
	return h.dispatchUC.Execute(ctx, p)
}
