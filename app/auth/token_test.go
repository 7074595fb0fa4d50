package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 12*time.Hour)

	token, err := svc.Issue(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := svc.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Issue(42)
	assert.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Issue(42)
	assert.NoError(t, err)

	_, err = NewTokenService("secret-b", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Parse(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}
