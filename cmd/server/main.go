package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ideahub/mentorship-api/internal/analysis"
	"ideahub/mentorship-api/internal/api"
	"ideahub/mentorship-api/internal/config"
	"ideahub/mentorship-api/internal/lock"
	"ideahub/mentorship-api/internal/logging"
	"ideahub/mentorship-api/internal/repository/mongo"
	"ideahub/mentorship-api/internal/service"
	"ideahub/mentorship-api/internal/storage"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	logging.Setup(cfg.Log)
	log.Info().Str("address", cfg.Server.Address).Msg("starting mentorship API")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		log.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProjectIndexes(ctx, appDB.Collection("projects"))
		mongo.EnsureStudentLinkIndexes(ctx, appDB.Collection("student_links"), cfg.Database.UniqueMentorPerLink)
		log.Info().Msg("index creation process completed")
	}()

	// --- Initialize Storage ---
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 10*time.Second)
	fileStorage, err := storage.NewS3Storage(storageCtx, cfg.S3)
	storageCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}

	analysisClient := analysis.NewClient(cfg.Analysis)

	// --- Analysis Lock ---
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("could not reach Redis")
		}
		locker = lock.NewRedisLocker(redisClient, "mentorship:", cfg.Redis.LockTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("analysis lock backed by Redis")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	projectRepo := mongo.NewMongoProjectRepository(appDB)
	linkRepo := mongo.NewMongoStudentLinkRepository(appDB)

	// --- Initialize Services ---
	services := api.Services{
		Auth:     service.NewAuthService(userRepo, cfg.JWT, cfg.Auth),
		Project:  service.NewProjectService(userRepo, projectRepo, linkRepo, fileStorage, analysisClient, cfg.Upload, cfg.S3.RootFolder),
		Analysis: service.NewAnalysisService(projectRepo, analysisClient, locker),
		Mentor:   service.NewMentorService(userRepo, projectRepo, linkRepo),
		Admin:    service.NewAdminService(userRepo, projectRepo, linkRepo),
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, services.Auth.GetJWTSecret(), cfg.Upload, services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()
	log.Info().Str("address", cfg.Server.Address).Msg("server listening")

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
