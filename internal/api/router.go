package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/dnlabs/credit-gateway/docs"
	"github.com/dnlabs/credit-gateway/internal/api/handler"
	"github.com/dnlabs/credit-gateway/internal/api/middleware"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

const bodyLimit = "64K"

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Accounts ports.AccountService
	Sessions ports.SessionVerifier
	Metering ports.MeteringService
	Admin    ports.AdminService

	AdminSecret string
	CORSOrigins []string

	// Limiter throttles metered calls; nil disables rate limiting.
	Limiter middleware.Limiter
	// Health lists the dependencies checked by /health/ready.
	Health map[string]handler.Pinger
	// Registry receives the HTTP request metrics; nil uses the default registry.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			middleware.HeaderAPIKey,
			middleware.HeaderAdminKey,
		},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "credit_gateway",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Accounts)
	keyHandler := handler.NewAPIKeyHandler(d.Accounts)
	dashHandler := handler.NewDashboardHandler(d.Accounts)
	usageHandler := handler.NewUsageHandler(d.Metering)
	adminHandler := handler.NewAdminHandler(d.Admin)
	healthHandler := handler.NewHealthHandler(d.Health)

	session := middleware.Session(d.Sessions)

	// --- Account routes ---
	api := e.Group("/api")
	api.POST("/auth-signup", authHandler.Register)
	api.POST("/auth-login", authHandler.Login)
	api.POST("/generate-api-key", keyHandler.Generate, session)
	api.GET("/get-dashboard-data", dashHandler.Get, session)
	api.GET("/usage-series", dashHandler.Series, session)

	// --- Metered routes ---
	metered := []echo.MiddlewareFunc{middleware.APIKey(d.Metering)}
	if d.Limiter != nil {
		metered = append(metered, middleware.RateLimit(d.Limiter, d.Log))
	}
	api.POST("/simulate-usage", usageHandler.Simulate, metered...)

	// --- Admin routes ---
	api.POST("/admin-update-credits", adminHandler.UpdateCredits, middleware.AdminSecret(d.AdminSecret))

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
