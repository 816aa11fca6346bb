package handler

import (
	"net/http"

	"github.com/BloggingApp/feed-client/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Config struct {
	// TokenSecret checks bearer tokens on write routes. Empty disables the check.
	TokenSecret  string
	ClientOrigin string
}

type Handler struct {
	logger   *zap.Logger
	services *service.Service
	cfg      Config
	metrics  http.Handler
}

func New(logger *zap.Logger, services *service.Service, cfg Config, metrics http.Handler) *Handler {
	return &Handler{
		logger:   logger,
		services: services,
		cfg:      cfg,
		metrics:  metrics,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	if h.cfg.ClientOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{h.cfg.ClientOrigin},
			AllowMethods:     []string{"POST", "GET", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	v1 := r.Group("/api/v1")
	{
		feeds := v1.Group("/feeds")
		{
			h.feedRoutes(feeds.Group("/global", h.viewMiddleware(globalView)))
			h.feedRoutes(feeds.Group("/following", h.viewMiddleware(followingView)))
			h.feedRoutes(feeds.Group("/profile/:userID", h.viewMiddleware(profileView)))
		}

		posts := v1.Group("/posts")
		{
			posts.POST("", h.authMiddleware, h.postsCreate)
			posts.POST("/:postID/like", h.authMiddleware, h.postsLike)
		}

		profiles := v1.Group("/profiles/:userID")
		{
			profiles.GET("", h.profilesGet)
			profiles.POST("/follow", h.authMiddleware, h.profilesFollow)
		}
	}

	return r
}

func (h *Handler) feedRoutes(g *gin.RouterGroup) {
	g.GET("", h.feedsGet)
	g.POST("/more", h.feedsMore)
	g.POST("/refresh", h.feedsRefresh)
	g.DELETE("", h.feedsDiscard)
}
