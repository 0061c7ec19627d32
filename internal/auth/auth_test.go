package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketplace/internal/domain"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong horse", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("long-enough"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 7*24*time.Hour)
	p := Principal{UserID: uuid.New(), Email: "seller@example.com", Role: domain.RoleSeller}

	token, expiresAt, err := issuer.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestTokenRejectsTamperingAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(Principal{UserID: uuid.New(), Email: "a@b.c", Role: domain.RoleAdmin})
	require.NoError(t, err)

	other := NewTokenIssuer("other-secret", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionCookieAttributes(t *testing.T) {
	c := SessionCookie("token", "abc", time.Now().Add(time.Hour), true)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	cleared := ClearedSessionCookie("token", false)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.False(t, cleared.Secure)
}
