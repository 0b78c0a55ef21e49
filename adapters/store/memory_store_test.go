package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, s.Put(ctx, "k", "v", time.Minute))

	clock.Advance(59 * time.Second)
	value, err := s.Peek(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	clock.Advance(time.Second)
	_, err = s.Peek(ctx, "k")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.GetAndConsume(ctx, "k")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreConsumeIfSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "k", "v", time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConsumeIf(ctx, "k", "v")
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStoreDenylist(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, s.InvalidateToken(ctx, "jti", time.Minute))
	revoked, err := s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	clock.Advance(2 * time.Minute)
	revoked, err = s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryUserDirectoryConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryUserDirectory()
	address := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	ids := make(chan string, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := d.CreateIfAbsent(ctx, address, address)
			assert.NoError(t, err)
			ids <- user.InternalID
		}()
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, 1, d.Len())
	first := ""
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
	}
}

func TestMemoryAccountStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAccountStore()

	first, err := s.Upsert(ctx, &core.LinkedAccount{UserID: "u1", ProviderID: "42", AccessToken: "a"})
	require.NoError(t, err)

	second, err := s.Upsert(ctx, &core.LinkedAccount{UserID: "u1", ProviderID: "42", AccessToken: "b"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "b", second.AccessToken)

	_, err = s.Upsert(ctx, &core.LinkedAccount{UserID: "u2", ProviderID: "42", AccessToken: "c"})
	require.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, s.DeleteByUserID(ctx, "u1"))
	_, err = s.FindByUserID(ctx, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)
}
