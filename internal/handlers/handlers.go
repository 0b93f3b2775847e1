package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/auth"
	"github.com/alokkksharmaa/EduSphere/internal/config"
	"github.com/alokkksharmaa/EduSphere/internal/middleware"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/service"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	gateway     *auth.Gateway
	jar         middleware.CookieJar
	authService *service.AuthService
	preferences *service.PreferenceService
	checks      map[string]HealthCheck
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	gateway *auth.Gateway,
	authService *service.AuthService,
	preferences *service.PreferenceService,
	checks map[string]HealthCheck,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		gateway:     gateway,
		jar:         middleware.NewCookieJar(cfg),
		authService: authService,
		preferences: preferences,
		checks:      checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	app := router.Group("")
	app.Use(middleware.Authenticate(h.gateway, h.jar, h.log))

	csrf := middleware.CSRF(h.gateway, h.cfg.CSRF)
	requireAuth := middleware.RequireAuth(h.cfg.LoginPath)

	authGroup := app.Group("/auth")
	{
		authGroup.GET("/login", h.LoginForm)
		authGroup.POST("/login", csrf, h.Login)
		authGroup.POST("/logout", csrf, h.Logout)
		authGroup.POST("/logout-all", requireAuth, csrf, h.LogoutAll)
		authGroup.GET("/me", requireAuth, h.Me)
	}

	api := app.Group("/api")
	{
		api.GET("/csrf", h.CSRFToken)
		api.POST("/preferences", requireAuth, csrf, h.UpdatePreferences)
	}

	admin := app.Group("/admin")
	admin.Use(middleware.RequireRoles(h.cfg.LoginPath, models.UserRoleAdmin))
	admin.GET("/users", h.AdminListUsers)
}
