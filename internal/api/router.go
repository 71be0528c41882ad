package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/unievents/eventhub-api/docs"
	"github.com/unievents/eventhub-api/internal/api/handler"
	"github.com/unievents/eventhub-api/internal/api/middleware"
	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Verifier ports.TokenVerifier
	Health   []handler.Dependency
	Log      zerolog.Logger

	// MetricsRegisterer receives the HTTP request metrics. Defaults to the
	// global registry, which /metrics serves.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	if deps.MetricsRegisterer == nil {
		deps.MetricsRegisterer = prometheus.DefaultRegisterer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "eventhub",
		Registerer: deps.MetricsRegisterer,
	}))

	guard := middleware.NewGuard(deps.Verifier, deps.Log)
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	healthHandler := handler.NewHealthHandler(deps.Health...)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, guard.Authenticated())

	// --- Identity administration ---
	v1 := e.Group("/v1")
	v1.GET("/users", userHandler.List, guard.RequireRoles(domain.RoleAdmin, domain.RoleOrganizer))
	v1.PATCH("/users/:id/role", userHandler.ChangeRole, guard.RequireRoles(domain.RoleAdmin))
	v1.DELETE("/users/:id", userHandler.Delete, guard.RequireRoles(domain.RoleAdmin))

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
