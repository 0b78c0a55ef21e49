package tokenizer

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/walletauth/core"
)

// SessionClaims combines standard claims with the embedded user snapshot
type SessionClaims struct {
	jwt.RegisteredClaims
	User core.User `json:"user"`
}
