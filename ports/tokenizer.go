package ports

import "github.com/layer-3/walletauth/core"

// Tokenizer converts between sessions and signed tokens. It checks integrity and
// structure only; validity windows and issuer are enforced by the caller.
type Tokenizer interface {
	SessionToToken(session *core.Session) (string, error)
	TokenToSession(token string) (*core.Session, error)
}

// SignatureVerifier owns the challenge message representation so that the form handed
// to clients and the form re-hashed on verification cannot drift apart.
type SignatureVerifier interface {
	EncodeMessage(text string) string
	Verify(address, message, signature string) error
}
