package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/thesistrack/thesistrack-api/internal/config"
	"github.com/thesistrack/thesistrack-api/internal/database"
	"github.com/thesistrack/thesistrack-api/internal/handler"
	"github.com/thesistrack/thesistrack-api/internal/middleware"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/repository"
	"github.com/thesistrack/thesistrack-api/internal/router"
	"github.com/thesistrack/thesistrack-api/internal/service"
	"github.com/thesistrack/thesistrack-api/pkg/filestore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.ChapterVersion{},
		&models.Group{},
		&models.GroupMember{},
		&models.Comment{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured; dashboard caching and cross-node fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	store, err := filestore.New(filestore.Config{
		UploadDir:      cfg.UploadDir,
		ProjectRoot:    cfg.ProjectRoot,
		DocumentRoot:   cfg.DocumentRoot,
		MaxFileSizeMB:  cfg.MaxFileSizeMB,
		MaxSearchDepth: cfg.MaxSearchDepth,
	}, logger)
	if err != nil {
		log.Fatalf("failed to initialise file store: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	chapterRepo := repository.NewChapterRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	dashboardService := service.NewDashboardService(chapterRepo, groupRepo, redisClient, cfg.DashboardCacheTTL, logger)
	notificationService := service.NewNotificationService(notificationRepo, groupRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	chapterService := service.NewChapterService(chapterRepo, groupRepo, store, validate, auditService, dashboardService, logger)
	reviewService := service.NewReviewService(chapterRepo, groupRepo, commentRepo, notificationService, auditService, validate, logger)
	reportService := service.NewReportService(chapterRepo, groupRepo, logger)

	serviceCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	notificationService.Start(serviceCtx)

	chapterHandler := handler.NewChapterHandler(chapterService, logger, cfg.DebugDiagnostics)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ChapterHandler:      chapterHandler,
		ReviewHandler:       reviewHandler,
		ReportHandler:       reportHandler,
		DashboardHandler:    dashboardHandler,
		NotificationHandler: notificationHandler,
		AuditHandler:        auditHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopServices)
}

func waitForShutdown(app *fiber.App, stopServices context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopServices()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
