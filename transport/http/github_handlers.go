package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

const postLinkRedirect = "/"

// GitHubHandlers contains HTTP handlers for GitHub account linking
type GitHubHandlers struct {
	authService   *service.AuthService
	linkService   *service.LinkService
	logger        *zap.Logger
	secureCookies bool
}

func NewGitHubHandlers(authService *service.AuthService, linkService *service.LinkService, logger *zap.Logger, secureCookies bool) *GitHubHandlers {
	return &GitHubHandlers{
		authService:   authService,
		linkService:   linkService,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// Authorize starts the OAuth flow, or completes it when GitHub calls back with a code
func (h *GitHubHandlers) Authorize(c *gin.Context) {
	if c.Query("code") != "" {
		h.completeLink(c)
		return
	}
	h.startLink(c)
}

func (h *GitHubHandlers) startLink(c *gin.Context) {
	token, _ := c.Cookie(sessionCookie)
	session, err := h.authService.CurrentSession(c.Request.Context(), token)
	if err != nil {
		c.Redirect(http.StatusFound, postLinkRedirect)
		return
	}

	state, authURL, err := h.linkService.StartLink(c.Request.Context(), session)
	if err != nil {
		h.logger.Error("failed to start github link", zap.String("user_id", session.User.InternalID), zap.Error(err))
		c.Redirect(http.StatusFound, postLinkRedirect)
		return
	}

	setStateCookie(c, state, int(h.linkService.StateTTL().Seconds()), h.secureCookies)
	c.Redirect(http.StatusFound, authURL)
}

func (h *GitHubHandlers) completeLink(c *gin.Context) {
	state := c.Query("state")
	cookieState, err := c.Cookie(stateCookie)
	clearStateCookie(c, h.secureCookies)

	if err != nil || state == "" || cookieState != state {
		h.logger.Warn("github link state mismatch")
		c.Redirect(http.StatusFound, postLinkRedirect)
		return
	}

	account, err := h.linkService.CompleteLink(c.Request.Context(), state, c.Query("code"))
	if err != nil {
		h.logger.Warn("failed to complete github link", zap.Error(err))
		c.Redirect(http.StatusFound, postLinkRedirect)
		return
	}

	h.logger.Info("github account linked", zap.String("user_id", account.UserID))
	c.Redirect(http.StatusFound, postLinkRedirect)
}

// GetConnection returns the linked GitHub profile
func (h *GitHubHandlers) GetConnection(c *gin.Context) {
	h.proxy(c, "Error fetching GitHub user", h.linkService.Connection)
}

// GetRepos returns the repositories of the linked GitHub account
func (h *GitHubHandlers) GetRepos(c *gin.Context) {
	h.proxy(c, "Error fetching GitHub repos", h.linkService.Repositories)
}

func (h *GitHubHandlers) proxy(c *gin.Context, upstreamMessage string, fetch func(ctx context.Context, userID string) (json.RawMessage, error)) {
	session := currentSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	data, err := fetch(c.Request.Context(), session.User.InternalID)
	if err != nil {
		respondError(c, h.logger, err, githubErrors(upstreamMessage))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// DeleteConnection unlinks the GitHub account
func (h *GitHubHandlers) DeleteConnection(c *gin.Context) {
	session := currentSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	if err := h.linkService.Unlink(c.Request.Context(), session.User.InternalID); err != nil {
		respondError(c, h.logger, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "GitHub connection deleted"})
}
