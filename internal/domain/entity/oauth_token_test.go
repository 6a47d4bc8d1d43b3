package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuthToken_UsableAt(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	token := &OAuthToken{ExpiresAt: expiry}

	assert.True(t, token.UsableAt(expiry.Add(-10*time.Minute)))
	assert.False(t, token.UsableAt(expiry.Add(-ExpiryBuffer)), "inside the buffer counts as expired")
	assert.False(t, token.UsableAt(expiry.Add(-time.Minute)))
	assert.False(t, token.UsableAt(expiry))
	assert.False(t, token.UsableAt(expiry.Add(time.Hour)))
}

func TestSplitScopes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SplitScopes(""))
	assert.Nil(t, SplitScopes("   "))
	assert.Equal(t,
		[]string{"a", "b"},
		SplitScopes("  a   b "))
}
