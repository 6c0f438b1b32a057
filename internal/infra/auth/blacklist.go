package auth

import (
	"context"
	"sync"
	"time"

	"fittrack/internal/domain/service"
)

// MemoryBlacklist is an in-process RevocationRegistry. Each revoked token is
// held exactly until its own expiry instant, then removed by a timer, so the
// set only ever contains tokens that would otherwise still verify.
//
// Entries do not survive a restart; tokens revoked before a crash become
// valid again until they expire. A shared deployment should use the Redis
// registry instead.
type MemoryBlacklist struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	tokens service.TokenService
	closed bool
}

// NewMemoryBlacklist is the constructor for MemoryBlacklist.
func NewMemoryBlacklist(tokens service.TokenService) *MemoryBlacklist {
	return &MemoryBlacklist{
		timers: make(map[string]*time.Timer),
		tokens: tokens,
	}
}

// Revoke denylists the token until its expiry. Malformed and already-expired
// tokens are accepted without insertion: neither can pass verification, so
// there is nothing to block.
func (b *MemoryBlacklist) Revoke(_ context.Context, token string) error {
	claims, err := b.tokens.DecodeUnverified(token)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	if _, exists := b.timers[token]; exists {
		return nil
	}

	b.timers[token] = time.AfterFunc(ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.timers, token)
	})

	return nil
}

// IsRevoked performs an exact-match membership test.
func (b *MemoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, revoked := b.timers[token]

	return revoked, nil
}

// size reports the number of tokens currently denylisted.
func (b *MemoryBlacklist) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.timers)
}

// Close stops all pending expiry timers. The registry accepts no further
// insertions afterwards.
func (b *MemoryBlacklist) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for token, timer := range b.timers {
		timer.Stop()
		delete(b.timers, token)
	}
}
