package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var (
	_ ports.UserDirectory    = (*MemoryUserDirectory)(nil)
	_ ports.AccountLinkStore = (*MemoryAccountStore)(nil)
)

// MemoryUserDirectory keeps users in a map keyed by address
type MemoryUserDirectory struct {
	users map[string]core.User
	mu    sync.Mutex
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{users: make(map[string]core.User)}
}

func (d *MemoryUserDirectory) FindByAddress(ctx context.Context, address string) (*core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[address]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", address, core.ErrNotFound)
	}
	return &user, nil
}

func (d *MemoryUserDirectory) CreateIfAbsent(ctx context.Context, address, displayName string) (*core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if user, ok := d.users[address]; ok {
		return &user, nil
	}

	now := time.Now().UTC()
	user := core.User{
		Address:     address,
		DisplayName: displayName,
		InternalID:  uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.users[address] = user
	return &user, nil
}

// Len reports the number of stored users
func (d *MemoryUserDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

// MemoryAccountStore keeps linked accounts in a map keyed by user id
type MemoryAccountStore struct {
	accounts map[string]core.LinkedAccount
	mu       sync.Mutex
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]core.LinkedAccount)}
}

func (s *MemoryAccountStore) Upsert(ctx context.Context, account *core.LinkedAccount) (*core.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, existing := range s.accounts {
		if existing.ProviderID == account.ProviderID && userID != account.UserID {
			return nil, fmt.Errorf("provider account %s is linked to another user: %w", account.ProviderID, core.ErrConflict)
		}
	}

	now := time.Now().UTC()
	stored, ok := s.accounts[account.UserID]
	if !ok {
		stored = core.LinkedAccount{
			ID:        uuid.New().String(),
			UserID:    account.UserID,
			CreatedAt: now,
		}
	}
	stored.ProviderID = account.ProviderID
	stored.AccessToken = account.AccessToken
	stored.RefreshToken = account.RefreshToken
	stored.UpdatedAt = now

	s.accounts[account.UserID] = stored
	return &stored, nil
}

func (s *MemoryAccountStore) FindByUserID(ctx context.Context, userID string) (*core.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("linked account for %s: %w", userID, core.ErrNotFound)
	}
	return &account, nil
}

func (s *MemoryAccountStore) DeleteByUserID(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, userID)
	return nil
}
