package service

import "context"

// RevocationRegistry is the denylist of access tokens invalidated before
// their signed expiry. Implementations must be safe for concurrent use and
// must never retain an entry past the token's own expiry instant.
//
// The registry is a constructed, injected dependency rather than package
// state so a shared, cache-backed implementation can replace the in-memory
// set without touching the session manager.
type RevocationRegistry interface {
	// Revoke denylists the token until its own expiry. A malformed token is
	// reported as success with no insertion: there is nothing meaningful to block.
	Revoke(ctx context.Context, token string) error

	// IsRevoked performs an exact-match membership test.
	IsRevoked(ctx context.Context, token string) (bool, error)
}
