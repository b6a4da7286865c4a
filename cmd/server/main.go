package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"jobtrackr/docs"
	"jobtrackr/internal/auth"
	"jobtrackr/internal/cache"
	"jobtrackr/internal/config"
	"jobtrackr/internal/db"
	"jobtrackr/internal/handler"
	"jobtrackr/internal/repository"
	"jobtrackr/internal/router"
	"jobtrackr/internal/service"
)

// @title JobTrackr API
// @version 1.0
// @description Job application tracker with JWT authentication, owner-scoped CRUD and dashboard aggregates.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping all tables...")
		if err := db.Reset(gormDB); err != nil {
			log.Printf("Warning: failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("%v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Printf("Warning: redis unavailable at %s, continuing without cache: %v", cfg.RedisAddr, err)
	}
	cancelPing()

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	jobRepo := repository.NewJobRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	jobService := service.NewJobService(jobRepo, cacheClient, cfg.Timezone)

	router.Register(e, cfg, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
		Job:  handler.NewJobHandler(jobService),
	}, auth.Guard(jwtService, tokenStore, userRepo))

	swaggerURL := "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		if !strings.HasPrefix(cfg.SwaggerHost, "http://") && !strings.HasPrefix(cfg.SwaggerHost, "https://") {
			swaggerURL = "http://" + swaggerURL
		}
	}
	log.Printf("Swagger documentation available at: %s", swaggerURL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.ServerPort)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server start: %v", err)
		}
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}

	if err := cacheClient.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
