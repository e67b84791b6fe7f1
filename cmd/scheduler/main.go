// Package main is the entry point for the PuppyTalk notification scheduler.
//
// The scheduler owns the background side of the notification lifecycle:
//   - detecting users who went quiet and scheduling pet messages for them
//   - dispatching due notifications through the delivery channel
//   - retrying failed deliveries
//   - expiring stale records and cleaning up old data
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/puppytalk-hub/notification-engine/config"
	"github.com/puppytalk-hub/notification-engine/internal/application/notify"
	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/channel"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/content"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/persistence/postgres"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/persistence/redis"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/scheduler"
	"github.com/puppytalk-hub/notification-engine/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL (or DB_HOST and friends) is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting PuppyTalk notification scheduler",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	if cfg.Database.MigrateOnStart {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional outside production)
	// ─────────────────────────────────────────────────────────────────────────
	var notificationCache *redis.NotificationCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err := redis.NewCache(redisConfig(cfg))
		if err != nil {
			if cfg.IsProduction() {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			log.Warn("failed to connect to Redis, counters and leader lock disabled", "error", err)
		} else {
			defer redisCache.Close()
			notificationCache = redis.NewNotificationCache(redisCache)
			log.Info("Redis connection established")
		}
	} else {
		log.Warn("Redis disabled, counters and leader lock unavailable")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. DOMAIN SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	clock := shared.SystemClock{}
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	activityRepo := postgres.NewActivityRepository(dbConn)
	notificationService := notification.NewDomainService(notificationRepo, clock)
	activityService := activity.NewDomainService(activityRepo, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. CONTENT GENERATION
	// ─────────────────────────────────────────────────────────────────────────
	var generator notification.ContentGenerator
	fallback := content.NewFallbackGenerator(nil)

	if cfg.AI.Disabled || cfg.AI.BaseURL == "" {
		log.Info("AI generation disabled, using template fallback messages")
		generator = fallback
	} else {
		aiGen := content.NewAIGenerator(content.AIConfig{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Timeout: cfg.AI.RequestTimeout,
		})
		generator = content.NewResilientGenerator(aiGen, fallback, log)
		log.Info("AI generation enabled", "base_url", cfg.AI.BaseURL)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DELIVERY CHANNEL
	// ─────────────────────────────────────────────────────────────────────────
	var inner notification.DeliveryChannel
	switch cfg.Channel.Kind {
	case "log":
		inner = channel.NewLogChannel(log)
	default:
		mock := channel.NewMockFCMChannel(nil, log)
		mock.SetFailureRate(cfg.Channel.MockFailureRate)
		inner = mock
	}
	deliveryChannel := channel.NewBreakerChannel(inner, log)
	log.Info("delivery channel ready", "channel", deliveryChannel.Name())

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION FLOWS
	// ─────────────────────────────────────────────────────────────────────────
	petDirectory := postgres.NewPetDirectory(dbConn)
	chatHistory := postgres.NewChatHistory(dbConn)
	flow := notify.NewInactivityFlow(
		activityService, notificationService, petDirectory, chatHistory, generator, log)

	var counter notify.DeliveryCounter
	if notificationCache != nil {
		counter = notificationCache
	}
	dispatcher := notify.NewDispatcher(notificationService, deliveryChannel, counter, clock, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER AND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		return errors.New("SCHEDULER_ENABLED=false leaves this binary with nothing to do")
	}

	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Clock:    clock,
		Timezone: cfg.App.Location,
	})

	detectCfg := jobs.DefaultDetectInactiveConfig()
	detectCfg.CandidateLimit = cfg.Scheduler.DetectCandidateLimit
	detectCfg.Timeout = cfg.Scheduler.JobTimeout

	dispatchCfg := jobs.DefaultDispatchPendingConfig()
	dispatchCfg.BatchSize = cfg.Scheduler.DispatchBatchSize
	dispatchCfg.Timeout = cfg.Scheduler.JobTimeout

	retryCfg := jobs.DefaultRetryFailedConfig()
	retryCfg.BatchSize = cfg.Scheduler.RetryBatchSize
	retryCfg.Timeout = cfg.Scheduler.JobTimeout

	type registration struct {
		job      scheduler.Job
		schedule scheduler.Schedule
	}
	registrations := []registration{
		{
			job:      jobs.NewDetectInactiveJob(flow, clock, log, detectCfg),
			schedule: scheduler.NewIntervalSchedule(cfg.Scheduler.DetectInactiveInterval),
		},
		{
			job:      jobs.NewDispatchPendingJob(dispatcher, log, dispatchCfg),
			schedule: scheduler.NewIntervalSchedule(cfg.Scheduler.DispatchPendingInterval),
		},
		{
			job:      jobs.NewRetryFailedJob(dispatcher, log, retryCfg),
			schedule: scheduler.NewIntervalSchedule(cfg.Scheduler.RetryFailedInterval),
		},
		{
			job:      jobs.NewCleanupJob(notificationService, activityService, log, jobs.DefaultCleanupConfig()),
			schedule: scheduler.NewDailySchedule(cfg.Scheduler.CleanupHour, cfg.Scheduler.CleanupMinute, cfg.App.Location),
		},
	}

	holder := instanceID()
	for _, r := range registrations {
		job := r.job
		if notificationCache != nil {
			job = scheduler.NewLockedJob(job, notificationCache, holder, log)
		}
		if err := sched.Register(job, r.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("scheduler started", "instance", holder, "jobs", len(registrations))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging per the log config.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redisConfig maps the app config onto the Redis client config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout

	// REDIS_URL wins over individual settings when set ("host:port").
	if cfg.Redis.URL != "" {
		host, portStr, ok := strings.Cut(strings.TrimPrefix(cfg.Redis.URL, "redis://"), ":")
		if ok {
			rc.Host = host
			if p, err := strconv.Atoi(portStr); err == nil {
				rc.Port = p
			}
		}
	}
	return rc
}

// instanceID identifies this scheduler instance in the leader lock value.
func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "scheduler"
	}
	return hostname + "-" + uuid.NewString()[:8]
}
