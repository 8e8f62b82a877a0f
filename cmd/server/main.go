package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/reviewloop/internal/api"
	"github.com/vytor/reviewloop/internal/config"
	"github.com/vytor/reviewloop/internal/db"
	"github.com/vytor/reviewloop/internal/feedback"
	"github.com/vytor/reviewloop/internal/jobs"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/plan"
	"github.com/vytor/reviewloop/internal/repository/sqlite"
	"github.com/vytor/reviewloop/internal/retention"
	"github.com/vytor/reviewloop/internal/scheduler"
	"github.com/vytor/reviewloop/internal/services"
	"github.com/vytor/reviewloop/internal/worker"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("ReviewLoop Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("audit_worker_count=%d", cfg.AuditWorkerCount)
	log.Debug("audit_queue_size=%d", cfg.AuditQueueSize)
	log.Debug("window_size=%d", cfg.WindowSize)
	log.Debug("min_observations=%d", cfg.MinObservations)
	log.Debug("target_retention=%.2f", cfg.TargetRetention)
	log.Debug("curve_refresh_cron=%s", cfg.CurveRefreshCron)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize repositories
	learnerRepo := sqlite.NewLearnerRepository(database.DB)
	itemRepo := sqlite.NewReviewItemRepository(database.DB)
	obsRepo := sqlite.NewObservationRepository(database.DB)
	answerEventRepo := sqlite.NewAnswerEventRepository(database.DB)
	feedbackEventRepo := sqlite.NewFeedbackEventRepository(database.DB)
	curveRepo := sqlite.NewCurveRepository(database.DB)
	planRepo := sqlite.NewPlanRepository(database.DB)

	// Initialize background worker pool for audit records and curve refits
	auditPool := worker.NewPool(cfg.AuditWorkerCount, cfg.AuditQueueSize)

	// Initialize domain components
	schedCfg := scheduler.Config{
		Baseline:      cfg.AbilityBaseline,
		AbilityWeight: cfg.AbilityWeight,
		ScaleMin:      cfg.AbilityScaleMin,
		ScaleMax:      cfg.AbilityScaleMax,
		EasyBonus:     cfg.EasyBonus,
		HardPenalty:   cfg.HardPenalty,
	}
	detector := feedback.NewDetector(feedback.Config{
		WindowSize:       cfg.WindowSize,
		MildAccuracy:     cfg.MildAccuracy,
		ModerateAccuracy: cfg.ModerateAccuracy,
		SevereStreak:     cfg.SevereStreak,
		TrendDelta:       cfg.TrendDelta,
	})
	applier := plan.NewApplier(planRepo, plan.Config{
		MaxPerDay:       cfg.MaxAdjustmentsPerDay,
		CooldownMinutes: cfg.CooldownMinutes,
	})

	// Initialize services
	retentionService := services.NewRetentionService(services.RetentionConfig{
		MinObservations: cfg.MinObservations,
		MaxCurveAge:     time.Duration(cfg.CurveStaleHours) * time.Hour,
		Predictor: retention.PredictorConfig{
			TargetRetention: cfg.TargetRetention,
			Tolerance:       cfg.UrgencyTolerance,
		},
		DefaultDecayConstant: 0.3,
		DefaultConfidence:    0.3,
	}, itemRepo, obsRepo, curveRepo)

	queue := jobs.NewWorkerQueue(auditPool, feedbackEventRepo, retentionService)

	reviewService := services.NewReviewService(
		schedCfg,
		detector,
		applier,
		learnerRepo,
		itemRepo,
		obsRepo,
		answerEventRepo,
		planRepo,
		queue,
	)
	planService := services.NewPlanService(applier)

	srv := &api.Server{
		DB:               database.DB,
		ReviewService:    reviewService,
		RetentionService: retentionService,
		PlanService:      planService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	auditPool.Start(ctx)

	// Nightly refresh keeps cached forgetting curves from going stale.
	cron := jobs.NewCronScheduler(retentionService)
	if err := cron.Start(cfg.CurveRefreshCron); err != nil {
		log.Error("failed to start curve refresh scheduler: %v", err)
		os.Exit(1)
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping curve refresh scheduler")
	cron.Stop()

	// Cancel worker context
	log.Debug("stopping worker pool")
	cancel()

	// Shutdown HTTP server
	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Wait for workers to finish
	log.Debug("stopping audit pool")
	auditPool.Stop()

	log.Info("===========================================")
	log.Info("ReviewLoop Server Stopped")
	log.Info("===========================================")
}
