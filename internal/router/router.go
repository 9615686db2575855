package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/jebol-id/adminduk-api/internal/handler"
	"github.com/jebol-id/adminduk-api/internal/middleware"
	"github.com/jebol-id/adminduk-api/internal/models"
	"github.com/jebol-id/adminduk-api/internal/repository"
	"github.com/jebol-id/adminduk-api/internal/service"
	"github.com/jebol-id/adminduk-api/pkg/config"
	"github.com/jebol-id/adminduk-api/pkg/logger"
	corsmiddleware "github.com/jebol-id/adminduk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jebol-id/adminduk-api/pkg/middleware/requestid"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	AuthService *service.AuthService
	UserService *service.UserService
	Metrics     *service.MetricsService
	Audits      *repository.AuditRepository
	Limiter     middleware.RateLimiter
	Monitoring  *handler.MonitoringHandler
}

// New builds the gin engine with the full route table. Role requirements are
// declared per route group; the RBAC middleware is the single gate.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Metrics)
	userHandler := handler.NewUserHandler(deps.UserService)

	r.GET("/health", deps.Monitoring.Health)
	r.GET("/ready", deps.Monitoring.Ready)
	r.GET("/metrics", deps.Monitoring.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login",
		middleware.LoginRateLimit(deps.Limiter, cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, deps.Logger),
		authHandler.Login,
	)

	authed := auth.Group("", middleware.Auth(deps.AuthService))
	authed.POST("/logout", middleware.RequireAbility(models.AbilityAccess), authHandler.Logout)
	authed.GET("/me", middleware.RequireAbility(models.AbilityAccess), authHandler.Me)
	authed.POST("/refresh", middleware.RequireAbility(models.AbilityRefresh), authHandler.Refresh)

	protected := api.Group("", middleware.Auth(deps.AuthService), middleware.RequireAbility(models.AbilityAccess))

	// RT account administration, SUPER_ADMIN only (empty role list).
	rtUsers := protected.Group("/admin/users/rt", middleware.RequireRoles())
	rtUsers.POST("", userHandler.CreateRT)
	rtUsers.GET("", userHandler.ListRT)
	rtUsers.GET("/:id", userHandler.ShowRT)
	rtUsers.PATCH("/:id", userHandler.UpdateRT)
	rtUsers.DELETE("/:id", userHandler.DeleteRT)
	rtUsers.POST("/:id/reset-password", userHandler.ResetRTPassword)

	protected.GET("/admin/super-only", middleware.RequireRoles(), func(c *gin.Context) {
		response.Success(c, http.StatusOK, "SUPER_ADMIN access granted", nil)
	})

	moduleIndex := func(message string) gin.HandlerFunc {
		return func(c *gin.Context) {
			response.Success(c, http.StatusOK, message, nil)
		}
	}

	ktp := protected.Group("/ktp", middleware.RequireRoles(models.RoleAdminKTP))
	ktp.GET("", middleware.Audit(deps.Audits, "MODULE_ACCESS", "ktp"), moduleIndex("KTP module index"))

	ikd := protected.Group("/ikd", middleware.RequireRoles(models.RoleAdminIKD))
	ikd.GET("", middleware.Audit(deps.Audits, "MODULE_ACCESS", "ikd"), moduleIndex("IKD module index"))

	perkawinan := protected.Group("/admin/perkawinan", middleware.RequireRoles(models.RoleAdminPerkawinan))
	perkawinan.GET("", middleware.Audit(deps.Audits, "MODULE_ACCESS", "perkawinan"), moduleIndex("Perkawinan module index"))

	return r
}
