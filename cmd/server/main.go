package main

import (
	"alcyxob/wellbeing-app/internal/api"
	"alcyxob/wellbeing-app/internal/config"
	"alcyxob/wellbeing-app/internal/repository"
	"alcyxob/wellbeing-app/internal/repository/memory"
	"alcyxob/wellbeing-app/internal/repository/mongo"
	"alcyxob/wellbeing-app/internal/service"
	"alcyxob/wellbeing-app/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// repositories groups the storage backends the services are built on.
type repositories struct {
	users       repository.UserRepository
	weeks       repository.WeekRepository
	items       repository.ChallengeRepository
	completions repository.CompletionRepository
	resources   repository.ResourceRepository
}

// openRepositories connects the configured database driver. The returned
// close func releases the connection.
func openRepositories(cfg config.DatabaseConfig) (*repositories, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Println("WARN: Using the in-memory database; all data is lost on restart.")
		db := memory.NewDB()
		return &repositories{
			users:       memory.NewUserRepository(db),
			weeks:       memory.NewWeekRepository(db),
			items:       memory.NewChallengeRepository(db),
			completions: memory.NewCompletionRepository(db),
			resources:   memory.NewResourceRepository(db),
		}, func() {}, nil
	}

	dbClient, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, nil, err
	}
	appDB := dbClient.Database(cfg.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() { // Run index creation in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	closeFn := func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}
	return &repositories{
		users:       mongo.NewMongoUserRepository(appDB),
		weeks:       mongo.NewMongoWeekRepository(appDB),
		items:       mongo.NewMongoChallengeRepository(appDB),
		completions: mongo.NewMongoCompletionRepository(appDB),
		resources:   mongo.NewMongoResourceRepository(appDB),
	}, closeFn, nil
}

// @title Wellbeing Weekly Challenges API
// @version 1.0
// @description Weekly challenge catalog, per-user progress and role-gated catalog management.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Wellbeing App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (database driver %q).", cfg.Database.Driver)

	// --- Repositories ---
	repos, closeRepos, err := openRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer closeRepos()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		log.Println("Initializing file storage service...")
		fileStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: S3 is not configured; week resources are unavailable.")
	}

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	challengeService := service.NewChallengeService(repos.weeks, repos.items, repos.completions, repos.resources, fileStorage)
	progressService := service.NewProgressService(repos.weeks, repos.items, repos.completions)
	resourceService := service.NewResourceService(repos.weeks, repos.resources, fileStorage)

	// --- HTTP concerns ---
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	opts := api.RouteOptions{
		RateLimiter: api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}
	go opts.RateLimiter.Cleanup(ctx, time.Minute, 10*time.Minute)

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = api.NewMetrics(registry)
		opts.MetricsUser = cfg.Metrics.User
		opts.MetricsPass = cfg.Metrics.Pass
		log.Println("Metrics enabled on /metrics.")
	}

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, challengeService, progressService, resourceService, opts)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
