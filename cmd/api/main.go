package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-vacancy-api/api/swagger"
	"github.com/noah-isme/course-vacancy-api/internal/handler"
	"github.com/noah-isme/course-vacancy-api/internal/middleware"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	"github.com/noah-isme/course-vacancy-api/internal/repository"
	"github.com/noah-isme/course-vacancy-api/internal/service"
	"github.com/noah-isme/course-vacancy-api/migrations"
	"github.com/noah-isme/course-vacancy-api/pkg/cache"
	"github.com/noah-isme/course-vacancy-api/pkg/config"
	"github.com/noah-isme/course-vacancy-api/pkg/database"
	"github.com/noah-isme/course-vacancy-api/pkg/logger"
	"github.com/noah-isme/course-vacancy-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/course-vacancy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-vacancy-api/pkg/middleware/requestid"
	"github.com/noah-isme/course-vacancy-api/pkg/storage"
)

// @title Course Vacancy API
// @version 1.0.0
// @description Course vacancy and teaching attribution management
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrations.RunOnStartup {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			logr.Fatal("failed to set migration dialect", zap.Error(err))
		}
		if err := goose.Up(db.DB, "."); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	modificationRepo := repository.NewModificationRepository(db)
	coordinatorRepo := repository.NewCoordinatorRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Background mail delivery.
	mail := mailer.FromConfig(cfg.Notifications, logr)
	notifications := service.NewNotificationService(cfg.Notifications, mail, logr)
	notifications.Start(context.Background())
	defer notifications.Stop()

	metricsSvc := service.NewMetricsService()

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, assignmentRepo, coordinatorRepo, cacheRepo, validate, logr)
	proposalSvc := service.NewProposalService(proposalRepo, courseRepo, assignmentRepo, teacherRepo, userRepo, notifications, cacheRepo, validate, logr)
	modificationSvc := service.NewModificationService(modificationRepo, courseRepo, userRepo, notifications, validate, logr)
	coordinatorSvc := service.NewCoordinatorService(coordinatorRepo, courseRepo, teacherRepo, notifications, validate, logr)
	importSvc := service.NewImportService(courseRepo, teacherRepo, assignmentRepo, userRepo, cacheRepo, cfg.Imports, logr)
	dashboardSvc := service.NewDashboardService(courseRepo, assignmentRepo, proposalRepo, modificationRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(courseSvc, exportStore, signer, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL, logr)
		exportSvc.StartCleanup(context.Background())
		defer exportSvc.StopCleanup()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, importSvc)
	proposalHandler := handler.NewProposalHandler(proposalSvc, metricsSvc)
	modificationHandler := handler.NewModificationHandler(modificationSvc, metricsSvc)
	coordinatorHandler := handler.NewCoordinatorHandler(coordinatorSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	// Teachers submit proposals and modification requests without an account.
	api.POST("/proposals", proposalHandler.Submit)
	api.POST("/modification-requests", modificationHandler.Submit)
	api.POST("/courses/:id/validation-requests", coordinatorHandler.RequestValidation)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))
	auth.GET("/auth/me", authHandler.Me)

	admin := auth.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff))

	admin.GET("/courses", courseHandler.List)
	admin.GET("/courses/export", courseHandler.ExportCSV)
	admin.GET("/courses/:id", courseHandler.Get)
	admin.GET("/courses/:id/assignments", courseHandler.Assignments)
	admin.GET("/courses/:id/attribution.pdf", courseHandler.ExportPDF)
	admin.GET("/courses/:id/validation-requests", coordinatorHandler.ListValidations)
	admin.GET("/proposals", proposalHandler.List)
	admin.GET("/proposals/:id", proposalHandler.Get)
	admin.GET("/modification-requests", modificationHandler.List)
	admin.GET("/modification-requests/:id", modificationHandler.Get)

	writer := auth.Group("")
	writer.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	writer.POST("/courses", courseHandler.Create)
	writer.PUT("/courses/:id", courseHandler.Update)
	writer.POST("/courses/import", courseHandler.Import)
	writer.POST("/courses/:id/coordinators", coordinatorHandler.Register)
	writer.POST("/proposals/:id/approve", proposalHandler.Approve)
	writer.POST("/proposals/:id/reject", proposalHandler.Reject)
	writer.POST("/modification-requests/:id/approve", modificationHandler.Approve)
	writer.POST("/modification-requests/:id/reject", modificationHandler.Reject)
	writer.POST("/validation-requests/:id/decide", coordinatorHandler.Decide)

	if cfg.Dashboard.Enabled {
		admin.GET("/dashboard", dashboardHandler.Overview)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		admin.POST("/exports", exportHandler.Create)
		// Token-authenticated; the signed URL is shared outside the console.
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
