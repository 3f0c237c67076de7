package auth

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// fallbackRevocationTTL bounds how long an unparsable token stays revoked.
const fallbackRevocationTTL = 24 * time.Hour

// Blacklist is the in-memory revocation registry. Each entry maps an exact
// token string to that token's natural expiry so a sweep can drop entries
// that no longer need tracking. Safe for concurrent use without external
// locking.
type Blacklist struct {
	entries sync.Map // token string -> expiry time.Time
	now     func() time.Time
}

// NewBlacklist returns an empty registry.
func NewBlacklist() *Blacklist {
	return &Blacklist{now: time.Now}
}

// Revoke inserts the token into the registry. The stored expiry is read from
// the token's exp claim without verifying the signature; tokens that cannot
// be parsed are kept for a fallback period so they stay unusable. Revoking a
// token that is already present is a no-op: the first stored expiry wins.
func (b *Blacklist) Revoke(token string) {
	expiry := b.now().Add(fallbackRevocationTTL)

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	b.entries.LoadOrStore(token, expiry)
}

// IsRevoked reports whether the token is present in the registry. The stored
// expiry is deliberately not consulted; entries only leave the registry
// through SweepExpired.
func (b *Blacklist) IsRevoked(token string) bool {
	_, ok := b.entries.Load(token)
	return ok
}

// SweepExpired removes every entry whose stored expiry is strictly before
// now and returns how many were removed. Entries expiring exactly at now are
// kept. Safe to run concurrently with Revoke and IsRevoked.
func (b *Blacklist) SweepExpired(now time.Time) int {
	removed := 0
	b.entries.Range(func(key, value any) bool {
		if value.(time.Time).Before(now) {
			b.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the current number of revoked entries.
func (b *Blacklist) Len() int {
	count := 0
	b.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
