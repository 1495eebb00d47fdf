package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fas-core-api/api/swagger"
	"github.com/noah-isme/fas-core-api/internal/handler"
	"github.com/noah-isme/fas-core-api/internal/middleware"
	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/internal/repository"
	"github.com/noah-isme/fas-core-api/internal/service"
	"github.com/noah-isme/fas-core-api/pkg/cache"
	"github.com/noah-isme/fas-core-api/pkg/config"
	"github.com/noah-isme/fas-core-api/pkg/database"
	"github.com/noah-isme/fas-core-api/pkg/jobs"
	"github.com/noah-isme/fas-core-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fas-core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fas-core-api/pkg/middleware/requestid"
)

// @title FAS Core API
// @version 0.1.0
// @description Student financial aid assessment and disbursement engine
// @BasePath /
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	applicationRepo := repository.NewApplicationRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	disbursementRepo := repository.NewDisbursementRepository(db)
	restrictionRepo := repository.NewRestrictionRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Eligibility.CacheTTL, logr, cfg.Eligibility.CacheEnabled)

	// The queue handler needs the assessment service and the service needs the
	// queue; the closure captures the variable assigned below, before Start.
	var assessmentSvc *service.AssessmentService
	queue := jobs.NewQueue("assessments", func(ctx context.Context, job jobs.Job) error {
		return assessmentSvc.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Assessments.WorkerConcurrency,
		BufferSize: cfg.Assessments.QueueBufferSize,
		Logger:     logr,
	})

	assessmentSvc = service.NewAssessmentService(assessmentRepo, applicationRepo, queue, auditRepo, cfg.Assessments, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, auditRepo, logr)
	sequencerSvc := service.NewSequencerService(applicationRepo, logr)
	disbursementSvc := service.NewDisbursementService(disbursementRepo, cacheSvc, metricsSvc, auditRepo, cfg.Funding, logr)
	restrictionSvc := service.NewRestrictionService(restrictionRepo, cacheSvc, metricsSvc, auditRepo, cfg.Restrictions, logr)

	appealOpts := []service.AppealServiceOption{
		service.WithAppealActionHandlers(map[models.AppealActionKind]service.AppealActionHandler{
			models.AppealActionReassessment: service.AppealActionHandlerFunc(func(ctx context.Context, appeal *models.AppealRequest) error {
				_, err := assessmentSvc.CreateManualReassessment(ctx, appeal.ApplicationID, *appeal.DecidedBy)
				return err
			}),
		}),
	}
	appealSvc := service.NewAppealService(appealRepo, auditRepo, logr, appealOpts...)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(rootCtx)
	defer queue.Stop()

	go runRetrySweep(rootCtx, assessmentSvc, metricsSvc, cfg.Assessments.SweepInterval, logr)

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
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	applicationHandler := handler.NewApplicationHandler(applicationSvc, sequencerSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	disbursementHandler := handler.NewDisbursementHandler(disbursementSvc, validate)
	restrictionHandler := handler.NewRestrictionHandler(restrictionSvc)
	appealHandler := handler.NewAppealHandler(appealSvc, validate)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	applications := api.Group("/applications")
	{
		applications.POST("/:id/change-request", middleware.RequireRoles(models.RoleStudent), applicationHandler.OpenChangeRequest)
		applications.POST("/:id/change-request/submit", middleware.RequireRoles(models.RoleStudent), applicationHandler.SubmitChangeRequest)
		applications.POST("/:id/change-request/cancel", middleware.RequireRoles(models.RoleStudent), applicationHandler.CancelChangeRequest)
		applications.POST("/:id/change-request/approve", middleware.RequireRoles(models.RoleMinistry), applicationHandler.ApproveChange)
		applications.POST("/:id/change-request/decline", middleware.RequireRoles(models.RoleMinistry), applicationHandler.DeclineChange)
		applications.GET("/:id/sequence", middleware.RequireRoles(models.RoleMinistry), applicationHandler.Sequence)
		applications.POST("/:id/reassessments", middleware.RequireRoles(models.RoleMinistry), assessmentHandler.CreateReassessment)
	}

	disbursements := api.Group("/disbursements", middleware.RequireRoles(models.RoleMinistry))
	{
		disbursements.GET("/eligible", disbursementHandler.ListEligible)
		disbursements.GET("/eligible/export", disbursementHandler.Export)
		disbursements.POST("/mark-sent", disbursementHandler.MarkSent)
	}

	api.POST("/restrictions/reconcile", middleware.RequireRoles(models.RoleMinistry), restrictionHandler.Reconcile)
	api.GET("/students/:id/restrictions", middleware.RequireRoles(models.RoleMinistry, models.RoleInstitution), restrictionHandler.ListActive)
	if cfg.Appeals.Enabled {
		api.POST("/appeals/:id/decision", middleware.RequireRoles(models.RoleMinistry), appealHandler.Decide)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
		os.Exit(1)
	}
}

// runRetrySweep periodically re-enqueues assessments stuck in a queued status.
func runRetrySweep(ctx context.Context, svc *service.AssessmentService, metricsSvc *service.MetricsService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			requeued, err := svc.RequeueStale(ctx, now.UTC())
			if err != nil {
				logr.Sugar().Errorw("retry sweep failed", "error", err)
				continue
			}
			if requeued > 0 {
				metricsSvc.ObserveRequeuedAssessments(requeued)
			}
		}
	}
}
