package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/campushub/campushub-api/api/swagger"
	"github.com/campushub/campushub-api/internal/handler"
	"github.com/campushub/campushub-api/internal/repository"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/pkg/cache"
	"github.com/campushub/campushub-api/pkg/config"
	"github.com/campushub/campushub-api/pkg/database"
	"github.com/campushub/campushub-api/pkg/jobs"
	"github.com/campushub/campushub-api/pkg/logger"
	"github.com/campushub/campushub-api/pkg/mailer"
	"github.com/campushub/campushub-api/pkg/payment"
	"github.com/campushub/campushub-api/pkg/storage"
)

// @title CampusHub API
// @version 1.0.0
// @description Multi-tenant school management with class and exam schedule generation.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
	defer cacheRepo.Close()

	metrics := service.NewMetricsService()
	cacheService := service.NewCacheService(
		cacheRepo,
		metrics,
		cfg.Scheduler.DraftTTL,
		logr,
		redisClient != nil,
	)

	queue := jobs.NewQueue("mail", jobs.Config{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
		Observe:    metrics.ObserveJob,
	})
	notifier := service.NewNotificationService(queue, mailer.New(cfg.Mail, logr), cfg.AppName, logr)
	queue.Register(service.JobTypeSendMail, notifier.SendMailJob)
	queue.Start(ctx)
	defer queue.Stop()

	exportStore, err := storage.NewDiskStore(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	resources := service.NewResources(db, repository.NewReferenceRepository(db), validate, logr)
	intakeCourseRepo := repository.NewIntakeCourseRepository(db)

	authService := service.NewAuthService(repository.NewUserRepository(db), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		Pools:         repository.NewSchedulingRepository(db),
		IntakeCourses: resources.IntakeCourses,
		Classes:       resources.ClassSchedules,
		Exams:         resources.ExamSchedules,
		Drafts:        service.NewDraftStore(cacheService),
		Storage:       exportStore,
		Signer:        signer,
		Notifier:      notifier,
		Metrics:       metrics,
	}, service.ScheduleConfig{
		DraftTTL:            cfg.Scheduler.DraftTTL,
		CheckPersisted:      cfg.Scheduler.CheckPersisted,
		HonorClassesPerWeek: cfg.Scheduler.HonorClassesPerWeek,
		ClassesPerWeek:      cfg.Scheduler.ClassesPerWeek,
		DurationWeeks:       cfg.Scheduler.DurationWeeks,
		MaxImportRows:       cfg.Scheduler.MaxImportRows,
		APIPrefix:           cfg.APIPrefix,
		ExportTTL:           cfg.Exports.SignedURLTTL,
	}, validate, logr)

	enrollmentService := service.NewEnrollmentService(resources.IntakeCourses, intakeCourseRepo, logr)
	billingService := service.NewBillingService(
		resources.Subscriptions,
		resources.Payments,
		resources.Schools,
		payment.New(cfg.Payments),
		notifier,
		cfg.Payments.Currency,
		validate,
		logr,
	)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:     cfg,
		Logger:     logr,
		Metrics:    metrics,
		Auth:       authService,
		Resources:  resources,
		Schedules:  scheduleService,
		Enrollment: enrollmentService,
		Billing:    billingService,
		Checks:     checks,
	})

	go sweepExports(ctx, scheduleService, cfg.Exports.CleanupInterval, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func redisPinger(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// sweepExports deletes stored exports whose download links have expired.
func sweepExports(ctx context.Context, schedules *service.ScheduleService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := schedules.CleanupExports(); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
