package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfryer1193/blogposts/internal/middleware"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Posts    PostService
	Tokens   middleware.TokenVerifier
	DB       Pinger
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the engine with the shared middleware chain and mounts the API on it.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Handler())
	}

	NewApi(router, deps)
	return router
}

func NewApi(router *gin.Engine, deps Dependencies) {
	registerValidationTags()

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/healthz", healthz(deps.DB))

	posts := NewPostHandler(deps.Posts)
	postsV1 := router.Group("/posts", middleware.Authenticate(deps.Tokens))
	{
		postsV1.GET("", posts.Index)
		postsV1.GET("/:id", posts.Show)

		authed := postsV1.Group("", middleware.RequireUser())
		authed.GET("/create", posts.Create)
		authed.POST("", posts.Store)
		authed.GET("/:id/edit", posts.Edit)
		authed.PUT("/:id", posts.Update)
		authed.PATCH("/:id", posts.Update)
		authed.DELETE("/:id", posts.Destroy)
	}
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
