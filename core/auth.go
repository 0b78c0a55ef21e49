package core

import (
	"encoding/json"
	"time"
)

// User represents an authenticated wallet identity
type User struct {
	Address     string    `json:"address"`     // Checksummed Ethereum address, primary key
	DisplayName string    `json:"displayName"` // Human readable label, defaults to the address
	InternalID  string    `json:"internalId"`  // Stable server-generated identifier
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Session represents a validated session credential
type Session struct {
	ID        string    // Token identifier (jti)
	User      User      // Snapshot of the user at issue time
	Issuer    string    // Configured issuer
	IssuedAt  time.Time // When the session was created
	NotBefore time.Time // Start of the validity window
	ExpiresAt time.Time // End of the validity window
}

// LinkedAccount is a third-party identity bound to exactly one user
type LinkedAccount struct {
	ID           string
	UserID       string // References User.InternalID
	ProviderID   string // The provider's own user identifier
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderToken is the credential obtained from an OAuth code exchange
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
}

// ProviderProfile is the provider's view of the linked user
type ProviderProfile struct {
	ID  string
	Raw json.RawMessage
}
