// Package main runs the CRM HTTP API with the websocket invalidation feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hkf/crm/config"
	"github.com/hkf/crm/internal/auth"
	"github.com/hkf/crm/internal/cohorts"
	"github.com/hkf/crm/internal/communications"
	"github.com/hkf/crm/internal/conversations"
	"github.com/hkf/crm/internal/dashboard"
	"github.com/hkf/crm/internal/documents"
	"github.com/hkf/crm/internal/enrollments"
	"github.com/hkf/crm/internal/escalations"
	"github.com/hkf/crm/internal/events"
	"github.com/hkf/crm/internal/interviews"
	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/internal/models"
	"github.com/hkf/crm/internal/notify"
	"github.com/hkf/crm/internal/organizations"
	"github.com/hkf/crm/internal/payments"
	"github.com/hkf/crm/internal/people"
	"github.com/hkf/crm/internal/programs"
	"github.com/hkf/crm/internal/realtime"
	"github.com/hkf/crm/internal/registrations"
	"github.com/hkf/crm/internal/worker"
	"github.com/hkf/crm/pkg/database"
	"github.com/hkf/crm/pkg/queue"
	"github.com/hkf/crm/pkg/redis"
	"github.com/hkf/crm/pkg/response"
	"github.com/hkf/crm/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := cfg.Server.Location()
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var objects documents.ObjectStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			objects = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Tenancy
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo)

	// People and their timeline
	peopleRepo := people.NewRepository(pool)
	peopleHandler := people.NewHandler(peopleRepo, hub, logger)
	commsRepo := communications.NewRepository(pool)
	commsHandler := communications.NewHandler(commsRepo, hub, logger)

	// Programs and cohorts
	programRepo := programs.NewRepository(pool)
	programHandler := programs.NewHandler(programRepo, programs.NewService(programRepo, hub))
	cohortRepo := cohorts.NewRepository(pool)
	cohortHandler := cohorts.NewHandler(cohortRepo, cohorts.NewService(cohortRepo, hub))

	// Applications and decisions
	enrollmentRepo := enrollments.NewRepository(pool)
	enrollmentSvc := enrollments.NewService(enrollmentRepo, peopleRepo, programRepo, commsRepo,
		notify.NewQueueNotifier(jobQueue), hub, logger)
	enrollmentHandler := enrollments.NewHandler(enrollmentRepo, enrollmentSvc)

	interviewHandler := interviews.NewHandler(interviews.NewRepository(pool), hub)
	paymentHandler := payments.NewHandler(payments.NewRepository(pool), hub)

	// Events
	eventHandler := events.NewHandler(events.NewRepository(pool), hub, logger)
	registrationHandler := registrations.NewHandler(registrations.NewRepository(pool), hub, logger)

	escalationHandler := escalations.NewHandler(escalations.NewRepository(pool), hub)
	conversationHandler := conversations.NewHandler(conversations.NewRepository(pool), hub)
	documentHandler := documents.NewHandler(documents.NewRepository(pool), objects, hub, logger)
	dashboardHandler := dashboard.NewHandler(dashboard.NewService(dashboard.NewRepository(pool), loc), logger)

	validateToken := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// WebSocket (token and org in query; membership checked before upgrade)
	router.GET("/ws", realtime.ServeWs(hub, logger, realtime.NewUpgrader(cfg.Server.SplitOrigins()), validateToken, orgRepo))

	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))

	// Organizations the caller belongs to (no tenant header yet)
	api.GET("/organizations", orgHandler.ListMyOrganizations)
	api.POST("/organizations", orgHandler.CreateOrganization)

	t := api.Group("")
	t.Use(middleware.RequireOrganization(orgRepo))
	{
		t.GET("/organization/members", orgHandler.ListMembers)
		t.POST("/organization/members", middleware.RequireRole(models.OrgRoleOwner), orgHandler.AddMember)

		t.GET("/dashboard/stats", dashboardHandler.Stats)
		t.GET("/dashboard/recent", dashboardHandler.Recent)

		t.GET("/people", peopleHandler.List)
		t.POST("/people", peopleHandler.Create)
		t.GET("/people/:id", peopleHandler.Get)
		t.PUT("/people/:id", peopleHandler.Update)
		t.DELETE("/people/:id", middleware.RequireRole(models.OrgRoleOwner, models.OrgRoleManager), peopleHandler.Delete)
		t.GET("/people/:id/communications", commsHandler.ListByPerson)

		t.POST("/communications", commsHandler.Log)
		t.PATCH("/communications/:id/status", commsHandler.UpdateStatus)

		t.GET("/programs", programHandler.List)
		t.POST("/programs", programHandler.Create)
		t.GET("/programs/:id", programHandler.Get)
		t.PUT("/programs/:id", programHandler.Update)
		t.GET("/programs/:id/cohorts", cohortHandler.List)
		t.POST("/programs/:id/cohorts", cohortHandler.Create)
		t.PUT("/programs/:id/cohorts/:cohortId", cohortHandler.Update)

		t.GET("/enrollments", enrollmentHandler.List)
		t.POST("/enrollments", enrollmentHandler.Apply)
		t.GET("/enrollments/:id", enrollmentHandler.Get)
		t.PATCH("/enrollments/:id/status", enrollmentHandler.UpdateStatus)
		t.POST("/enrollments/:id/decision", middleware.RequireRole(models.OrgRoleOwner, models.OrgRoleManager), enrollmentHandler.Decide)

		t.GET("/interviews", interviewHandler.List)
		t.POST("/interviews", interviewHandler.Schedule)
		t.GET("/interviews/:id", interviewHandler.Get)
		t.PATCH("/interviews/:id", interviewHandler.Update)

		t.GET("/payments", paymentHandler.List)
		t.POST("/payments", paymentHandler.Create)
		t.PATCH("/payments/:id/status", paymentHandler.UpdateStatus)

		t.GET("/events", eventHandler.List)
		t.POST("/events", eventHandler.Create)
		t.GET("/events/:id", eventHandler.Get)
		t.PUT("/events/:id", eventHandler.Update)
		t.DELETE("/events/:id", middleware.RequireRole(models.OrgRoleOwner, models.OrgRoleManager), eventHandler.Delete)
		t.GET("/events/:id/registrations", registrationHandler.List)
		t.POST("/events/:id/registrations", registrationHandler.Register)
		t.POST("/events/:id/registrations/:registrationId/cancel", registrationHandler.Cancel)
		t.POST("/events/:id/registrations/:registrationId/check-in", registrationHandler.CheckIn)

		t.GET("/escalations", escalationHandler.List)
		t.POST("/escalations", escalationHandler.Create)
		t.PATCH("/escalations/:id", escalationHandler.Update)

		t.GET("/conversations", conversationHandler.List)
		t.POST("/conversations", conversationHandler.Create)
		t.GET("/conversations/:id", conversationHandler.Get)
		t.POST("/conversations/:id/messages", conversationHandler.AppendMessage)
		t.DELETE("/conversations/:id", conversationHandler.Delete)

		t.GET("/documents", documentHandler.List)
		t.POST("/documents", documentHandler.Create)
		t.GET("/documents/:id", documentHandler.Get)
		t.POST("/documents/:id/file", documentHandler.Upload)
		t.POST("/documents/:id/confirm", documentHandler.Confirm)
		t.PATCH("/documents/:id/status", documentHandler.UpdateStatus)
		t.GET("/documents/:id/download-url", documentHandler.DownloadURL)
		t.DELETE("/documents/:id", documentHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Notification worker in-process when no separate worker is deployed
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Notify.InlineWorker {
		processor := worker.NewNotificationProcessor(deliverer(cfg.Email), commsRepo, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("notification worker started", zap.Bool("smtp", cfg.Email.Enabled()))
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// deliverer returns nil (not a typed nil) when SMTP is not configured.
func deliverer(cfg config.EmailConfig) worker.Deliverer {
	if !cfg.Enabled() {
		return nil
	}
	return notify.NewMailer(cfg)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
