package token

import (
	"sync"
	"time"
)

// RevocationList invalidates every access token of an identity issued before a cutoff.
// Used after a password reset or deactivation, when sessions are gone but
// short-lived access tokens are still in flight.
type RevocationList interface {
	RevokeIssuedBefore(identityID string, cutoff time.Time, until time.Time)
	IsRevoked(identityID string, issuedAt time.Time) bool
	Cleanup() int // Remove expired entries
}

type revocation struct {
	cutoff time.Time
	until  time.Time
}

// InMemoryRevocationList is a simple in-memory implementation
type InMemoryRevocationList struct {
	revoked map[string]revocation
	mu      sync.RWMutex
	nowFunc func() time.Time
}

var _ RevocationList = (*InMemoryRevocationList)(nil)

func NewInMemoryRevocationList(nowFunc func() time.Time) *InMemoryRevocationList {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &InMemoryRevocationList{
		revoked: make(map[string]revocation),
		nowFunc: nowFunc,
	}
}

// RevokeIssuedBefore keeps the entry until `until`, normally now + access token lifetime.
// The cutoff is truncated to IssuedAtPrecision to line up with iat.
func (c *InMemoryRevocationList) RevokeIssuedBefore(identityID string, cutoff time.Time, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff = cutoff.Truncate(IssuedAtPrecision)
	if existing, ok := c.revoked[identityID]; ok && existing.cutoff.After(cutoff) {
		cutoff = existing.cutoff
	}
	c.revoked[identityID] = revocation{cutoff: cutoff, until: until}
}

func (c *InMemoryRevocationList) IsRevoked(identityID string, issuedAt time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, exists := c.revoked[identityID]
	if !exists {
		return false
	}
	return issuedAt.Before(r.cutoff)
}

func (c *InMemoryRevocationList) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	removed := 0
	for id, r := range c.revoked {
		if now.After(r.until) {
			delete(c.revoked, id)
			removed++
		}
	}
	return removed
}
