// Package main - точка входа фонового процесса (Worker) трекера посещаемости.
//
// Worker отвечает за:
// - Ночную очистку: окончательное удаление архивных учеников (30 дней)
//   и уроков из корзины (7 дней)
// - Обработку доменных событий: предупреждения о сериях пропусков
//   и уведомления о пороге поведенческих инцидентов
//
// Все операции чтения и записи идут через PostgreSQL; Redis используется
// только как необязательный кеш месячных сводок.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maktab-hub/maktab-tracker/config"
	"github.com/maktab-hub/maktab-tracker/internal/application/command"
	"github.com/maktab-hub/maktab-tracker/internal/application/eventhandler"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/infrastructure/messaging"
	"github.com/maktab-hub/maktab-tracker/internal/infrastructure/persistence/postgres"
	"github.com/maktab-hub/maktab-tracker/internal/infrastructure/persistence/redis"
	"github.com/maktab-hub/maktab-tracker/internal/infrastructure/scheduler"
	"github.com/maktab-hub/maktab-tracker/internal/infrastructure/scheduler/jobs"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting attendance tracker worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	store := postgres.NewStore(dbConn)
	repos := store.Repositories()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var attendanceCache *redis.MonthlyAttendanceCache
	var summaryCache *redis.BehavioralSummaryCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			attendanceCache = redis.NewMonthlyAttendanceCache(redisCache)
			summaryCache = redis.NewBehavioralSummaryCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ОБРАБОТЧИКОВ УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	streakHandler := eventhandler.NewStreakWarningHandler(repos.Students, repos.Parents, log)
	if err := eventBus.Subscribe(shared.EventStreakWarning, streakHandler); err != nil {
		return fmt.Errorf("failed to subscribe streak handler: %w", err)
	}

	thresholdHandler := eventhandler.NewIncidentThresholdHandler(repos.Students, repos.Parents, log)
	if err := eventBus.Subscribe(shared.EventThresholdCrossed, thresholdHandler); err != nil {
		return fmt.Errorf("failed to subscribe threshold handler: %w", err)
	}

	if attendanceCache != nil && summaryCache != nil {
		purgeHandler := eventhandler.NewPurgeInvalidationHandler(attendanceCache, summaryCache, log)
		if err := eventBus.Subscribe(shared.EventStudentPurged, purgeHandler); err != nil {
			return fmt.Errorf("failed to subscribe purge handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК И НОЧНАЯ ОЧИСТКА
	// ─────────────────────────────────────────────────────────────────────────
	sweepHandler := command.NewSweepHandler(store, eventBus, log, command.SweepConfig{
		StudentRetentionDays: cfg.Retention.StudentRetentionDays,
		LessonRetentionDays:  cfg.Retention.LessonRetentionDays,
	})

	sched := scheduler.NewScheduler(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	sweepJob := jobs.NewRetentionSweepJob(sweepHandler, log)
	sweepSchedule := scheduler.NewDailySchedule(cfg.Scheduler.SweepHour, cfg.Scheduler.SweepMinute)
	if err := sched.Register(sweepJob, sweepSchedule); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Warn("scheduler is disabled, retention sweep will not run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("attendance tracker worker is running",
		"sweep_schedule", sweepSchedule.String(),
		"student_retention_days", cfg.Retention.StudentRetentionDays,
		"lesson_retention_days", cfg.Retention.LessonRetentionDays,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" && cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
