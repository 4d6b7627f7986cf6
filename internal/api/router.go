package api

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classcheckin/internal/camera"
	"classcheckin/internal/checkin"
	"classcheckin/internal/httpmiddleware"
	"classcheckin/internal/live"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators the router serves.
type Deps struct {
	Service  *checkin.Service
	Hub      *live.Hub
	Camera   *camera.Poller // nil disables the camera routes
	Limiter  httpmiddleware.Limiter
	Health   map[string]HealthCheck
	Location *time.Location
	Now      func() time.Time
	WebDir   string // empty disables static files
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	h := newHandler(d)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics", "/v1/camera/latest.jpg"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	if d.Limiter != nil {
		v1.POST("/checkins", httpmiddleware.RateLimit(d.Limiter), h.CreateCheckin)
	} else {
		v1.POST("/checkins", h.CreateCheckin)
	}
	v1.GET("/checkins", h.ListCheckins)
	v1.GET("/feed", h.Feed)
	v1.GET("/export", h.Export)
	v1.GET("/windows", h.Windows)
	if d.Hub != nil {
		v1.GET("/live", d.Hub.Handle)
	}
	if d.Camera != nil {
		v1.GET("/camera", h.CameraInfo)
		v1.GET("/camera/latest.jpg", h.CameraFrame)
	}

	if d.WebDir != "" {
		r.StaticFile("/", filepath.Join(d.WebDir, "index.html"))
		r.Static("/static", filepath.Join(d.WebDir, "static"))
	}
	return r
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
