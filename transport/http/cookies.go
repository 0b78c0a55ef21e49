package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "session"
	stateCookie   = "state_uuid"
)

func setSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", secure, true)
}

// The state cookie has to survive the cross-site redirect back from GitHub
func setStateCookie(c *gin.Context, state string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, maxAge, "/", "", secure, true)
}

func clearStateCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/", "", secure, true)
}
