package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kidoai-service/internal/config"
	mongodb "kidoai-service/internal/database/mongo"
	redisdb "kidoai-service/internal/database/redis"
	"kidoai-service/internal/events"
	"kidoai-service/internal/handlers"
	"kidoai-service/internal/middleware"
	"kidoai-service/internal/repository"
	"kidoai-service/internal/service"
	"kidoai-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupLogging redirects the standard logger to a dated file under logDir.
func setupLogging(logDir string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if cfg.LogDir != "" {
		logFile, err := setupLogging(cfg.LogDir)
		if err != nil {
			log.Fatalf("Failed to set up logging: %v", err)
		}
		defer logFile.Close()
	}

	mongodb.Connect(cfg.MongoURI, cfg.MongoDatabase)
	defer mongodb.Disconnect()

	redisdb.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisdb.Close()

	var publisher *events.EventPublisher
	if cfg.RabbitMQURI != "" {
		var err error
		publisher, err = events.NewEventPublisher(cfg.RabbitMQURI, cfg.EventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	userRepo := repository.NewUserRepository(mongodb.Database)
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		log.Printf("Warning: Failed to ensure indexes: %v", err)
	}
	indexCancel()

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	userService := service.NewUserService(userRepo, tokenService, publisher)
	leaderboardService := service.NewLeaderboardService(userRepo)
	googleService := service.NewGoogleService(cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirect)
	aiService := service.NewAIService(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit())
	r.Use(middleware.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	userHandler := handlers.NewUserHandler(userService, leaderboardService, googleService, aiService, redisdb.Client, userRepo)
	userHandler.RegisterRoutes(r)
	r.NoRoute(middleware.NotFoundHandler)

	if cfg.ConsulAddress != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Printf("Warning: Consul client init failed: %v", err)
		} else if err := registry.Register(); err != nil {
			log.Printf("Warning: Consul registration failed: %v", err)
		} else {
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Printf("Error deregistering from Consul: %v", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	log.Println("Server exited, goodbye!")
}
