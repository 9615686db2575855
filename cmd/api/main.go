package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/jebol-id/adminduk-api/api/swagger"
	"github.com/jebol-id/adminduk-api/internal/handler"
	"github.com/jebol-id/adminduk-api/internal/middleware"
	"github.com/jebol-id/adminduk-api/internal/repository"
	"github.com/jebol-id/adminduk-api/internal/router"
	"github.com/jebol-id/adminduk-api/internal/service"
	"github.com/jebol-id/adminduk-api/pkg/cache"
	"github.com/jebol-id/adminduk-api/pkg/config"
	"github.com/jebol-id/adminduk-api/pkg/database"
	"github.com/jebol-id/adminduk-api/pkg/logger"
)

// @title JEBOL Adminduk API
// @version 1.0.0
// @description Role-gated administrative backend for citizen identity-document services
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

	var limiter middleware.RateLimiter
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, login rate limiting disabled", "error", err)
	} else {
		defer redisClient.Close()
		limiter = middleware.NewRedisRateLimiter(redisClient)
	}

	validate := validator.New()
	if err := service.RegisterUsernameValidation(validate); err != nil {
		logr.Sugar().Fatalw("failed to register validators", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metrics := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, tokenRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
	})
	userService := service.NewUserService(userRepo, tokenRepo, auditRepo, validate, logr)

	r := router.New(router.Deps{
		Config:      cfg,
		Logger:      logr,
		AuthService: authService,
		UserService: userService,
		Metrics:     metrics,
		Audits:      auditRepo,
		Limiter:     limiter,
		Monitoring:  handler.NewMonitoringHandler(metrics, db),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
