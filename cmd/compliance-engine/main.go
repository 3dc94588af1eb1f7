package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/prepai-labs/compliance-monitor/internal/handler"
	"github.com/prepai-labs/compliance-monitor/internal/middleware"
	"github.com/prepai-labs/compliance-monitor/internal/repository"
	"github.com/prepai-labs/compliance-monitor/internal/scheduler"
	"github.com/prepai-labs/compliance-monitor/internal/service"
	"github.com/prepai-labs/compliance-monitor/pkg/cache"
	"github.com/prepai-labs/compliance-monitor/pkg/config"
	"github.com/prepai-labs/compliance-monitor/pkg/database"
	"github.com/prepai-labs/compliance-monitor/pkg/logger"
	"github.com/prepai-labs/compliance-monitor/pkg/mailer"
	corsmiddleware "github.com/prepai-labs/compliance-monitor/pkg/middleware/cors"
	reqidmiddleware "github.com/prepai-labs/compliance-monitor/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db, cfg.Engine.QueryChunkSize)
	workItemRepo := repository.NewWorkItemRepository(db, cfg.Engine.QueryChunkSize)
	batchRepo := repository.NewBatchRepository(db)
	runStatusRepo := repository.NewRunStatusRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Summary.CacheTTL, logr, true)
	}

	riskSvc := service.NewRiskService(service.RiskServiceParams{
		Users:      userRepo,
		WorkItems:  workItemRepo,
		Batches:    batchRepo,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config:     cfg.Engine,
		SummaryTTL: cfg.Summary.CacheTTL,
	})
	reportSvc := service.NewReportService(logr)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP, logr)
	dispatchSvc := service.NewDispatchService(userRepo, smtpMailer, metricsSvc, logr)
	pipelineSvc := service.NewPipelineService(service.PipelineServiceParams{
		Risk:       riskSvc,
		Reports:    reportSvc,
		Dispatcher: dispatchSvc,
		Status:     runStatusRepo,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config:     cfg.Engine,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var elector scheduler.LeaderElector
		if redisClient != nil {
			elector = scheduler.NewRedisLeaderElector(redisClient, cfg.Scheduler.LockKey, cfg.Scheduler.LockTTL, logr)
		} else {
			elector = scheduler.NewStaticLeaderElector(cfg.Scheduler.Leader)
		}
		sched = scheduler.New(pipelineSvc, elector, logr, cfg.Scheduler)
		if err := sched.Start(); err != nil {
			logr.Sugar().Fatalw("failed to start scheduler", "error", err)
		}
	} else {
		logr.Info("scheduler disabled, running in API-only mode")
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	riskHandler := handler.NewRiskHandler(riskSvc, reportSvc)
	statusHandler := handler.NewStatusHandler(runStatusRepo)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/risk/summary", riskHandler.Summary)
	api.GET("/batches/:id/defaulters/report", riskHandler.BatchDefaultersReport)
	api.GET("/notifications/status", statusHandler.Latest)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck
	}
	logr.Info("server stopped")
}
