package auth

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, clockwork.NewRealClock())

	token, err := issuer.Issue("room-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	roomID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", roomID)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, clockwork.NewRealClock())
	other := NewIssuer("other-secret", time.Hour, clockwork.NewRealClock())

	token, err := issuer.Issue("room-1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, clockwork.NewRealClock())
	_, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewIssuer("test-secret", time.Hour, clock)

	token, err := issuer.Issue("room-1")
	require.NoError(t, err)

	// Still valid just before expiry
	clock.Advance(59 * time.Minute)
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreUnique(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, clockwork.NewRealClock())

	first, err := issuer.Issue("room-1")
	require.NoError(t, err)
	second, err := issuer.Issue("room-1")
	require.NoError(t, err)

	// jti differs even for the same room and issue time
	assert.NotEqual(t, first, second)
}
