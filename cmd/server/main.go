// Package main is the application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/config"
	"github.com/mustafamaahir/Meeting-Minutes/internal/handler"
	"github.com/mustafamaahir/Meeting-Minutes/internal/middleware"
	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/pipeline"
	"github.com/mustafamaahir/Meeting-Minutes/internal/repository"
	"github.com/mustafamaahir/Meeting-Minutes/internal/service"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/database"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/embedding"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/kafka"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/llm"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/storage"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tika"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

func main() {
	// 1. Load configuration.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. Initialize the logger.
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	// 3. Connect the datastores.
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.User{}, &model.MeetingMinutes{}, &model.QueryLog{}); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	// 4. Build the provider clients.
	tikaClient := tika.NewClient(cfg.Tika, nil)
	embeddingClient := embedding.NewWithFallback(embedding.NewClient(cfg.Embedding, nil), cfg.Embedding.Dimensions)
	llmClient := llm.NewClient(cfg.LLM, nil)
	vectorStore := qdrant.NewStore(cfg.Qdrant, embeddingClient, nil)
	if err := vectorStore.EnsureCollection(context.Background()); err != nil {
		log.Fatalf("failed to ensure qdrant collection: %v", err)
	}

	// 5. Repositories.
	userRepo := repository.NewUserRepository(database.DB)
	meetingRepo := repository.NewMeetingRepository(database.DB)
	queryLogRepo := repository.NewQueryLogRepository(database.DB)
	summaryCache := repository.NewSummaryCache(database.RDB)

	// 6. Services (dependency injection).
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	chunker, err := pipeline.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunking configuration: %v", err)
	}
	processor := pipeline.NewProcessor(chunker, cfg.Ingest.DateScanChars)
	archive := storage.NewArchive(cfg.MinIO, time.Duration(cfg.Ingest.PresignExpiryMinutes)*time.Minute)
	producer := kafka.NewProducer()

	userService := service.NewUserService(userRepo, jwtManager)
	summaryService := service.NewSummaryService(llmClient, cfg.LLM.SummaryModel)
	minutesService := service.NewMinutesService(
		tikaClient,
		processor,
		vectorStore,
		summaryService,
		meetingRepo,
		archive,
		producer,
		summaryCache,
		time.Duration(cfg.Ingest.SummaryCacheTTLMins)*time.Minute,
	)
	queryService := service.NewQueryService(vectorStore, llmClient, queryLogRepo, cfg.LLM.Model, cfg.Qdrant.TopK)

	// 7. Background consumer retrying failed vector deletions.
	go kafka.StartConsumer(cfg.Kafka, pipeline.NewCleanupWorker(vectorStore))

	// 8. Bootstrap the first admin account on an empty user table.
	seedAdminUser(userService, userRepo)

	// 9. Router.
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authHandler := handler.NewAuthHandler(userService)
	minutesHandler := handler.NewMinutesHandler(minutesService)
	queryHandler := handler.NewQueryHandler(queryService)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Meeting Minutes RAG API", "status": "active"})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)

			authed := auth.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", authHandler.Me)
				authed.POST("/logout", authHandler.Logout)
			}
		}

		minutes := api.Group("/minutes")
		{
			// The dashboard summary is public.
			minutes.GET("/summary/latest", minutesHandler.LatestSummary)

			authed := minutes.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("", minutesHandler.List)
				authed.POST("/query", queryHandler.Query)
				authed.POST("/upload",
					middleware.RequireRoles(model.RoleAdmin, model.RoleSecretary),
					minutesHandler.Upload)
				authed.DELETE("/:id",
					middleware.RequireRoles(model.RoleAdmin),
					minutesHandler.Delete)
			}
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.RequireRoles(model.RoleAdmin))
		{
			admin.GET("/query-logs", queryHandler.QueryLogs)
		}
	}

	// 10. Serve with graceful shutdown.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Info("server stopped")
}

// seedAdminUser creates the configured bootstrap admin when the user table
// is empty, so a fresh deployment has someone who can upload minutes.
func seedAdminUser(userService service.UserService, userRepo repository.UserRepository) {
	bootstrap := config.Conf.Bootstrap
	if bootstrap.AdminUsername == "" || bootstrap.AdminPassword == "" {
		return
	}

	_, err := userRepo.FindByUsername(bootstrap.AdminUsername)
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("bootstrap admin lookup failed: %v", err)
		return
	}

	if _, err := userService.Register(bootstrap.AdminUsername, bootstrap.AdminEmail, bootstrap.AdminPassword, model.RoleAdmin); err != nil {
		log.Warnf("failed to create bootstrap admin: %v", err)
		return
	}
	log.Infof("bootstrap admin '%s' created", bootstrap.AdminUsername)
}
