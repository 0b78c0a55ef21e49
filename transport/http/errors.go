package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"go.uber.org/zap"
)

const (
	msgAddressRequired     = "Address is required"
	msgCredentialsRequired = "Address and signature are required"
	msgInvalidAddress      = "Invalid address, or wrong checksum format"
	msgMessageNotFound     = "Session message not found"
	msgInvalidSignature    = "Invalid session message signature"
	msgUnauthorized        = "Unauthorized"
	msgAccountNotFound     = "GitHub account not found"
	msgInternal            = "Internal server error"
)

// errorResponse maps a service error to a status and client message. Errors
// without a mapping are logged and reported as 500.
type errorResponse struct {
	target  error
	status  int
	message string
}

var signInErrors = []errorResponse{
	{core.ErrInvalidAddress, http.StatusBadRequest, msgInvalidAddress},
	{core.ErrInvalidInput, http.StatusBadRequest, msgCredentialsRequired},
	{core.ErrChallengeNotFound, http.StatusNotFound, msgMessageNotFound},
	{core.ErrInvalidSignature, http.StatusBadRequest, msgInvalidSignature},
}

func githubErrors(upstreamMessage string) []errorResponse {
	return []errorResponse{
		{core.ErrNotFound, http.StatusNotFound, msgAccountNotFound},
		{core.ErrProviderRejected, http.StatusUnauthorized, msgUnauthorized},
		{core.ErrUpstreamUnavailable, http.StatusBadGateway, upstreamMessage},
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error, table []errorResponse) {
	for _, r := range table {
		if errors.Is(err, r.target) {
			c.JSON(r.status, gin.H{"error": r.message})
			return
		}
	}

	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
