package api

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/mw"
	"walkin-queue-backend/internal/parse"
	"walkin-queue-backend/internal/queue"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Engine *queue.Engine
	Salons SalonReader
	Log    logrus.FieldLogger
	// Health reports whether storage is reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request structs.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
				return parse.IsPhone(fl.Field().String())
			})
		}
	})
}

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, deps Deps) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(deps.Log))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || slices.Contains(cfg.CORSAllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsConfig.AddAllowHeaders(mw.RequestIDHeader)
	corsConfig.AddExposeHeaders(mw.RequestIDHeader)
	r.Use(cors.New(corsConfig))

	handler := NewHandler(deps.Engine, deps.Salons, deps.Log)

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := mw.NewClientRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		api.GET("/salons", caching, handler.GetSalons)
		api.GET("/salons/:salon_id", caching, handler.GetSalon)

		q := api.Group("/queue")
		q.POST("/join", handler.Join)
		q.GET("/status", handler.Status)
		q.GET("/history", handler.History)
		q.POST("/next", handler.Next)
		q.POST("/move", handler.Move)
		q.POST("/serve-now", handler.ServeNow)
		q.POST("/edit", handler.EditServices(queue.EditReplace))
		q.POST("/add-service", handler.EditServices(queue.EditAdd))
		q.POST("/cancel", handler.Cancel)
		q.DELETE("/:salon_id/:token", handler.Delete)
		q.POST("/reset", handler.Reset)
	}

	return r
}
