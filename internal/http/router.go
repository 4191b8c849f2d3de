package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/leadflow/leadflow-api/internal/config"
	"github.com/leadflow/leadflow-api/internal/http/handler"
	httpmiddleware "github.com/leadflow/leadflow-api/internal/http/middleware"
	"github.com/leadflow/leadflow-api/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(middleware.CORS(cfg))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/", authHandler.Root)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/health", authHandler.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.GET("/me", authMiddleware.ValidateJWT, authHandler.Me)
		}
	}

	return r
}
