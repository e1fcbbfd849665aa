package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/agro-alert/internal/adapter/advisor"
	"github.com/user/agro-alert/internal/adapter/api"
	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/adapter/notifier"
	"github.com/user/agro-alert/internal/adapter/queue/redisqueue"
	"github.com/user/agro-alert/internal/adapter/repository/postgres"
	redisrepo "github.com/user/agro-alert/internal/adapter/repository/redis"
	"github.com/user/agro-alert/internal/adapter/scheduler"
	"github.com/user/agro-alert/internal/adapter/weather"
	"github.com/user/agro-alert/internal/domain"
	"github.com/user/agro-alert/internal/pkg/config"
	"github.com/user/agro-alert/internal/pkg/logger"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting alert pipeline worker")

	m := metrics.NewPipelineMetrics()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// --- Repositories and Collaborator Clients ---
	ruleRepo := postgres.NewRuleRepository(db, log)
	farmRepo := postgres.NewFarmRepository(db, log, cfg.FarmCacheTTL)
	readingCache := redisrepo.NewReadingCache(redisClient, log)
	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout, log)
	cachedFetcher := weather.NewCachedFetcher(weatherClient, readingCache, log, m, cfg.WeatherCacheTTL)

	var adv domain.Advisor = advisor.Noop{}
	if cfg.AdvisorEndpoint != "" {
		adv = advisor.NewClient(cfg.AdvisorEndpoint, cfg.AdvisorTimeout, log)
	}

	// --- Channel Transports ---
	stdout := notifier.NewStdoutNotifier()
	var emailSender domain.EmailSender = stdout
	if cfg.SMTPHost != "" {
		emailSender = notifier.NewEmailSender(notifier.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			FromName: cfg.SMTPFromName,
		}, log)
	}
	var smsSender domain.SMSSender = stdout
	if cfg.SMSAccountSID != "" {
		smsSender = notifier.NewSMSSender(notifier.SMSConfig{
			AccountSID: cfg.SMSAccountSID,
			AuthToken:  cfg.SMSAuthToken,
			FromNumber: cfg.SMSFromNumber,
			BaseURL:    cfg.SMSBaseURL,
		}, log)
	}
	var pushSender domain.PushSender = stdout
	if cfg.PushEndpoint != "" {
		pushSender = notifier.NewPushSender(notifier.PushConfig{
			Endpoint:  cfg.PushEndpoint,
			ServerKey: cfg.PushServerKey,
		}, log)
	}

	// --- Queue and Handlers ---
	hostname, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		hostname = "worker-default"
	}
	queue, err := redisqueue.New(redisClient, log, m, redisqueue.Config{
		Consumer:       hostname,
		WorkersPerKind: cfg.QueueWorkersPerKind,
		MaxAttempts:    cfg.QueueMaxAttempts,
		RetryBackoff:   cfg.QueueRetryBackoff,
		HandlerTimeout: cfg.QueueHandlerTimeout,
	})
	if err != nil {
		log.Error("failed to initialize job queue", "error", err)
		os.Exit(1)
	}

	pipeline := usecaseBundle(queue, ruleRepo, farmRepo, cachedFetcher, weatherClient, readingCache, adv, emailSender, smsSender, pushSender, log, m, cfg)
	queue.RegisterHandler(domain.JobAlertCheck, pipeline.checkRule)
	queue.RegisterHandler(domain.JobWeatherUpdate, pipeline.refreshWeather)
	queue.RegisterHandler(domain.JobRecommendation, pipeline.recommend)
	queue.RegisterHandler(domain.JobNotification, pipeline.dispatch)

	// --- Scheduler ---
	sched := scheduler.New(queue, ruleRepo, farmRepo, log, scheduler.Intervals{
		AlertCheck:     cfg.AlertCheckInterval,
		WeatherUpdate:  cfg.WeatherUpdateInterval,
		Recommendation: cfg.RecommendationInterval,
	})
	go sched.Run(ctx)

	// --- Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(sched, queue, cfg.AdminToken, log),
	}
	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// Blocks until shutdown; workers drain in-flight jobs first.
	queue.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}
	log.Info("worker shut down gracefully")
}
