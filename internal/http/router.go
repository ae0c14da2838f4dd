package http

import (
	"log/slog"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "storefront-auth"

type Deps struct {
	Cfg     config.Config
	Log     *slog.Logger
	Service *credentials.Service

	// Provider resolves the caller for the access gate.
	Provider auth.AuthenticationProvider
	// Limiter guards login and registration; nil disables rate limiting.
	Limiter ratelimit.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	ReadyChecks map[string]handlers.Pinger
	// ShuttingDown flips readiness off during graceful shutdown.
	ShuttingDown func() bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Provider == nil {
		d.Provider = auth.Chain{}
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Cfg.Env == "prod"))
	r.Use(middlewares.CORS(d.Cfg.CORSAllowedOrigins))
	if d.Cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	}
	r.Use(middlewares.NewAccessGate(d.Provider, middlewares.AccessGateConfig{
		BaseURL:           d.Cfg.BaseURL,
		ProtectedPrefixes: d.Cfg.ProtectedPrefixes,
	}, d.Prom).Handler())

	// ops
	h := handlers.NewHealthHandler(d.ReadyChecks, d.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// auth
	authH := handlers.NewAuthHandler(d.Service)
	rl := func(route string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(d.Limiter, route, middlewares.KeyByIP, d.Prom, d.Log)
	}

	a := r.Group("/auth", middlewares.RequireJSON())
	a.POST("/register", rl("register"), authH.Register)
	a.POST("/login", rl("login"), authH.Login)
	a.POST("/logout", authH.Logout)
	a.GET("/me", authH.Me)
	a.POST("/verify-email", authH.VerifyEmail)

	// account, behind the access gate
	accountH := handlers.NewAccountHandler(d.Service)
	acc := r.Group("/account", middlewares.RequireIdentity())
	acc.GET("/profile", accountH.GetProfile)
	acc.PATCH("/profile", middlewares.RequireJSON(), accountH.UpdateProfile)

	return r
}
