package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

// SessionHandlers contains HTTP handlers for the wallet sign-in endpoints
type SessionHandlers struct {
	authService   *service.AuthService
	logger        *zap.Logger
	sessionMaxAge int
	secureCookies bool
}

func NewSessionHandlers(authService *service.AuthService, logger *zap.Logger, sessionMaxAge int, secureCookies bool) *SessionHandlers {
	return &SessionHandlers{
		authService:   authService,
		logger:        logger,
		sessionMaxAge: sessionMaxAge,
		secureCookies: secureCookies,
	}
}

// CreateMessage issues a sign-in challenge. The address comes from the query
// string or a JSON body.
func (h *SessionHandlers) CreateMessage(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		var req struct {
			Address string `json:"address"`
		}
		_ = c.ShouldBindJSON(&req)
		address = req.Address
	}

	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgAddressRequired})
		return
	}

	message, err := h.authService.RequestChallenge(c.Request.Context(), address)
	if err != nil {
		respondError(c, h.logger, err, signInErrors)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": message})
}

// CreateSession exchanges a signed challenge for a session cookie
func (h *SessionHandlers) CreateSession(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgCredentialsRequired})
		return
	}

	result, err := h.authService.CompleteSignIn(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		respondError(c, h.logger, err, signInErrors)
		return
	}

	setSessionCookie(c, result.Token, h.sessionMaxAge, h.secureCookies)
	c.JSON(http.StatusCreated, gin.H{"data": result.User})
}

// GetSession returns the user snapshot of the current session
func (h *SessionHandlers) GetSession(c *gin.Context) {
	session := currentSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session.User})
}

// DeleteSession clears the cookie and revokes the session when revocation is on
func (h *SessionHandlers) DeleteSession(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if err := h.authService.EndSession(c.Request.Context(), token); err != nil {
			h.logger.Warn("failed to revoke session", zap.Error(err))
		}
	}

	clearSessionCookie(c, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"data": "Session deleted"})
}
