package router

import (
	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	consenthandler "github.com/capilarmax/clinic-api/internal/handler/consent"
	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

// Handler registers routes on an authenticated group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

// SessionHandler serves both the login endpoints and the session endpoints
// that need a caller.
type SessionHandler interface {
	RegisterPublicRoutes(*gin.RouterGroup)
	RegisterRoutes(*gin.RouterGroup)
}

const apiPrefix = "/api/v1"

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	h        *handler.Handler
	sessionH SessionHandler
	patientH Handler
	consentH Handler
	config   RouterConfig
}

type RouterConfig struct {
	Mode        string
	RateLimit   *middleware.RateLimiterConfig
	CORSConfig  middleware.CORSConfig
	Metrics     *metrics.Metrics
	MetricsPath string
	// Body caps for /api/v1; zero means the middleware defaults.
	MaxBodySize      int64
	MaxSignatureSize int64
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	sessionH SessionHandler,
	patientH Handler,
	consentH Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	r := &Router{
		engine:   engine,
		auth:     auth,
		h:        h,
		sessionH: sessionH,
		patientH: patientH,
		consentH: consentH,
		config:   config,
	}

	// RequestID first so recovery and logging can tag their output.
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.AuditContext(),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
	)
	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.setupHealthCheck()

	api := r.engine.Group(apiPrefix)
	api.Use(middleware.BodyLimits(r.bodyLimits()))
	r.sessionH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.sessionH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected, r.auth)
	r.consentH.RegisterRoutes(protected, r.auth)
}

func (r *Router) bodyLimits() middleware.BodyLimitConfig {
	max, signature := r.config.MaxBodySize, r.config.MaxSignatureSize
	if max <= 0 {
		max = middleware.DefaultMaxBodySize
	}
	if signature <= 0 {
		signature = middleware.DefaultMaxSignatureSize
	}
	return middleware.BodyLimitConfig{
		Max:    max,
		Routes: map[string]int64{apiPrefix + consenthandler.SignatureRoute: signature},
	}
}

func (r *Router) setupHealthCheck() {
	health := r.engine.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
	}
	if r.config.MetricsPath != "" {
		r.engine.GET(r.config.MetricsPath, r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
