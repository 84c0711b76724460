package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ebms/billing-system/docs"
	"github.com/ebms/billing-system/internal/api/handler"
	"github.com/ebms/billing-system/internal/api/middleware"
	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

// Services are the core ports the HTTP layer drives.
type Services struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Bills  ports.BillService
	Tariff domain.Tariff
}

// Options tunes the transport.
type Options struct {
	JWTSecret     string
	AuthRateLimit float64
	AuthRateBurst int
	// Readiness lists the dependencies pinged by /health/ready.
	Readiness []handler.Pinger
	// Metrics receives HTTP request metrics and backs /metrics. Nil uses the
	// Prometheus default registry.
	Metrics *prometheus.Registry
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                       Electricity Bill Management API
// @version                     1.0
// @description                 Customer directory, staged-tariff billing and payments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: "ebms"}
	handlerCfg := echoprometheus.HandlerConfig{}
	if opts.Metrics != nil {
		promCfg.Registerer = opts.Metrics
		handlerCfg.Gatherer = opts.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	billHandler := handler.NewBillHandler(svc.Bills)
	tariffHandler := handler.NewTariffHandler(svc.Tariff)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes (public, rate limited) ---
	auth := e.Group("/auth", middleware.AuthRateLimit(opts.AuthRateLimit, opts.AuthRateBurst))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(opts.JWTSecret))

	v1.GET("/me", userHandler.Me)
	v1.GET("/users", userHandler.List, adminOnly)
	v1.POST("/users", userHandler.Create, adminOnly)
	v1.GET("/users/:id", userHandler.Get)
	v1.PATCH("/users/:id", userHandler.Update)
	v1.PUT("/users/:id/password", userHandler.ChangePassword)

	v1.GET("/bills", billHandler.List)
	v1.POST("/bills", billHandler.Create, adminOnly)
	v1.GET("/bills/:id", billHandler.Get)
	v1.POST("/bills/:id/pay", billHandler.Pay)
	v1.PUT("/bills/:id/status", billHandler.SetStatus, adminOnly)

	v1.GET("/tariff", tariffHandler.Quote)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(opts.Readiness...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
