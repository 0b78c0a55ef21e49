package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("conflict")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrProviderRejected    = errors.New("provider rejected credentials")

	// ErrInvalidAddress is an ErrInvalidInput for malformed or badly checksummed addresses
	ErrInvalidAddress = fmt.Errorf("%w: invalid ethereum address", ErrInvalidInput)
)
