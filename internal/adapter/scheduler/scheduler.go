package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// Intervals are the recurring cadences. Defaults preserve the source
// system's behavior: checks every 15 minutes, weather hourly,
// recommendations daily.
type Intervals struct {
	AlertCheck     time.Duration
	WeatherUpdate  time.Duration
	Recommendation time.Duration
}

func (i *Intervals) applyDefaults() {
	if i.AlertCheck <= 0 {
		i.AlertCheck = 15 * time.Minute
	}
	if i.WeatherUpdate <= 0 {
		i.WeatherUpdate = time.Hour
	}
	if i.Recommendation <= 0 {
		i.Recommendation = 24 * time.Hour
	}
}

// Scheduler owns the recurring job cadences and the on-demand producers
// exposed to collaborating services. Each tick enumerates the current
// rules/farms fresh, so newly created entities join the cadence without a
// restart, and a failed tick never cancels the next one.
type Scheduler struct {
	queue     domain.JobQueue
	rules     domain.RuleRepository
	farms     domain.FarmRepository
	logger    *slog.Logger
	intervals Intervals
}

// New creates a scheduler.
func New(queue domain.JobQueue, rules domain.RuleRepository, farms domain.FarmRepository, logger *slog.Logger, intervals Intervals) *Scheduler {
	intervals.applyDefaults()
	return &Scheduler{
		queue:     queue,
		rules:     rules,
		farms:     farms,
		logger:    logger.With("component", "scheduler"),
		intervals: intervals,
	}
}

// Run fires each cadence on its own ticker until ctx is cancelled. Every
// cadence also runs once at startup so a fresh deployment does not wait a
// full interval for its first readings.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	cadences := []struct {
		name     string
		interval time.Duration
		tick     func(context.Context) error
	}{
		{"weather-update", s.intervals.WeatherUpdate, s.tickWeatherUpdates},
		{"alert-check", s.intervals.AlertCheck, s.tickAlertChecks},
		{"recommendation", s.intervals.Recommendation, s.tickRecommendations},
	}
	for _, c := range cadences {
		wg.Add(1)
		go func(name string, interval time.Duration, tick func(context.Context) error) {
			defer wg.Done()
			s.logger.Info("cadence started", "cadence", name, "interval", interval)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			if err := tick(ctx); err != nil {
				s.logger.Error("tick failed", "cadence", name, "error", err)
			}
			for {
				select {
				case <-ticker.C:
					if err := tick(ctx); err != nil {
						s.logger.Error("tick failed", "cadence", name, "error", err)
					}
				case <-ctx.Done():
					s.logger.Info("cadence stopped", "cadence", name)
					return
				}
			}
		}(c.name, c.interval, c.tick)
	}
	wg.Wait()
}

// tickAlertChecks enqueues one alert-check job per active rule.
func (s *Scheduler) tickAlertChecks(ctx context.Context) error {
	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("list active rules: %w", err)
	}
	for _, rule := range rules {
		payload := domain.AlertCheckPayload{
			RuleID:    rule.ID,
			UserID:    rule.Contact.UserID,
			UserEmail: rule.Contact.Email,
			Phone:     rule.Contact.Phone,
			Locale:    rule.Contact.Locale,
		}
		if _, err := s.queue.Enqueue(ctx, domain.JobAlertCheck, payload); err != nil {
			s.logger.Error("failed to enqueue alert check", "rule_id", rule.ID, "error", err)
		}
	}
	s.logger.Debug("alert checks enqueued", "count", len(rules))
	return nil
}

// tickWeatherUpdates enqueues one weather-update job per distinct tracked
// location, drawn from active rules and registered farms.
func (s *Scheduler) tickWeatherUpdates(ctx context.Context) error {
	locations := make(map[string]struct{})

	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("list active rules: %w", err)
	}
	for _, rule := range rules {
		locations[rule.LocationID] = struct{}{}
	}

	farms, err := s.farms.ListFarms(ctx)
	if err != nil {
		return fmt.Errorf("list farms: %w", err)
	}
	for _, farm := range farms {
		locations[farm.LocationID] = struct{}{}
	}

	for loc := range locations {
		if loc == "" {
			continue
		}
		if _, err := s.queue.Enqueue(ctx, domain.JobWeatherUpdate, domain.WeatherUpdatePayload{LocationID: loc}); err != nil {
			s.logger.Error("failed to enqueue weather update", "location_id", loc, "error", err)
		}
	}
	s.logger.Debug("weather updates enqueued", "locations", len(locations))
	return nil
}

// tickRecommendations enqueues one recommendation job per farm.
func (s *Scheduler) tickRecommendations(ctx context.Context) error {
	farms, err := s.farms.ListFarms(ctx)
	if err != nil {
		return fmt.Errorf("list farms: %w", err)
	}
	for _, farm := range farms {
		if _, err := s.queue.Enqueue(ctx, domain.JobRecommendation, domain.RecommendationPayload{FarmID: farm.ID}); err != nil {
			s.logger.Error("failed to enqueue recommendation", "farm_id", farm.ID, "error", err)
		}
	}
	s.logger.Debug("recommendations enqueued", "count", len(farms))
	return nil
}

// EnqueueAlertCheck schedules an immediate evaluation of one rule, called
// by rule-management code when a rule is created or edited. Recipient
// details are resolved by the check itself from the stored rule.
func (s *Scheduler) EnqueueAlertCheck(ctx context.Context, ruleID string) (string, error) {
	return s.queue.Enqueue(ctx, domain.JobAlertCheck, domain.AlertCheckPayload{RuleID: ruleID})
}

// EnqueueWeatherUpdate schedules an immediate refresh of one location,
// called when a new farm or location is registered.
func (s *Scheduler) EnqueueWeatherUpdate(ctx context.Context, locationID string) (string, error) {
	return s.queue.Enqueue(ctx, domain.JobWeatherUpdate, domain.WeatherUpdatePayload{LocationID: locationID})
}
