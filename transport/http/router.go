package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

// Options tune the router for the deployment environment
type Options struct {
	// Development enables permissive CORS and drops the Secure cookie flag
	Development bool
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, linkService *service.LinkService, logger *zap.Logger, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	if opts.Development {
		router.Use(DevCORS())
	}

	secure := !opts.Development
	sessions := NewSessionHandlers(authService, logger, int(authService.SessionTTL().Seconds()), secure)
	github := NewGitHubHandlers(authService, linkService, logger, secure)
	requireSession := RequireSession(authService, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/session-messages", sessions.CreateMessage)
		api.POST("/sessions", sessions.CreateSession)
		api.GET("/sessions", requireSession, sessions.GetSession)
		api.DELETE("/sessions", sessions.DeleteSession)

		api.GET("/github-connections/authorize", github.Authorize)
		api.GET("/github-connections", requireSession, github.GetConnection)
		api.GET("/github-connections/repos", requireSession, github.GetRepos)
		api.DELETE("/github-connections", requireSession, github.DeleteConnection)
	}

	return router
}
