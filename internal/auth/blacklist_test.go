package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
)

func TestRevokeAndIsRevoked(t *testing.T) {
	b := NewBlacklist()
	tm := newTestManager(b)

	token, _, err := tm.Issue(testUser(1, domain.RoleUser))
	require.NoError(t, err)

	assert.False(t, b.IsRevoked(token))
	b.Revoke(token)
	assert.True(t, b.IsRevoked(token))
	assert.Equal(t, 1, b.Len())
}

func TestRevokeUnparsableTokenUsesFallbackExpiry(t *testing.T) {
	b := NewBlacklist()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return base }

	b.Revoke("not-a-jwt")
	assert.True(t, b.IsRevoked("not-a-jwt"))

	// Fallback expiry is now+24h: still present just before, swept just after.
	assert.Equal(t, 0, b.SweepExpired(base.Add(24*time.Hour)))
	assert.True(t, b.IsRevoked("not-a-jwt"))

	assert.Equal(t, 1, b.SweepExpired(base.Add(24*time.Hour+time.Second)))
	assert.False(t, b.IsRevoked("not-a-jwt"))
}

func TestRevokeIdempotentFirstExpiryWins(t *testing.T) {
	b := NewBlacklist()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return base }

	b.Revoke("opaque-token")
	require.Equal(t, 1, b.Len())

	// Re-revoking much later must not extend the stored expiry.
	b.now = func() time.Time { return base.Add(48 * time.Hour) }
	b.Revoke("opaque-token")
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.IsRevoked("opaque-token"))

	// The original expiry (base+24h) still governs the sweep.
	assert.Equal(t, 1, b.SweepExpired(base.Add(25*time.Hour)))
	assert.False(t, b.IsRevoked("opaque-token"))
}

func TestIsRevokedIgnoresStoredExpiry(t *testing.T) {
	b := NewBlacklist()
	tm := newTestManager(b)

	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issuedAt }
	token, expiresAt, err := tm.Issue(testUser(1, domain.RoleUser))
	require.NoError(t, err)

	b.Revoke(token)

	// Long past the token's natural expiry the entry still reports revoked;
	// only an explicit sweep removes it.
	assert.True(t, b.IsRevoked(token))
	b.SweepExpired(expiresAt.Add(time.Minute))
	assert.False(t, b.IsRevoked(token))
}

func TestSweepExpiredBoundary(t *testing.T) {
	b := NewBlacklist()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Entries stored with expiries base+24h and base+25h.
	b.now = func() time.Time { return base }
	b.Revoke("early")
	b.now = func() time.Time { return base.Add(time.Hour) }
	b.Revoke("late")

	// Expiry exactly equal to now is kept; only strictly-before goes.
	removed := b.SweepExpired(base.Add(24 * time.Hour))
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, b.Len())

	removed = b.SweepExpired(base.Add(24*time.Hour + time.Minute))
	assert.Equal(t, 1, removed)
	assert.False(t, b.IsRevoked("early"))
	assert.True(t, b.IsRevoked("late"))
}

func TestSweepConcurrentWithRevoke(t *testing.T) {
	b := NewBlacklist()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b.Revoke(fmt.Sprintf("token-%d-%d", worker, j))
				b.IsRevoked(fmt.Sprintf("token-%d-%d", worker, j))
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			b.SweepExpired(now)
		}
	}()
	wg.Wait()

	// All entries carry a future fallback expiry, so none may be lost.
	assert.Equal(t, 8*200, b.Len())
	for i := 0; i < 8; i++ {
		assert.True(t, b.IsRevoked(fmt.Sprintf("token-%d-0", i)))
	}
}
