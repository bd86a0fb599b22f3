package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", "clinic-api")
	require.NoError(t, err)

	now := time.Now()
	token, err := svc.GenerateToken("s1", "u2", now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "u2", claims.UserID)
}

func TestValidateTokenRejects(t *testing.T) {
	svc, _ := NewJWTService("secret", "clinic-api")
	other, _ := NewJWTService("other", "clinic-api")
	now := time.Now()

	expired, err := svc.GenerateToken("s1", "u2", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	foreign, err := other.GenerateToken("s1", "u2", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = svc.ValidateToken("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService("", "clinic-api")
	assert.Error(t, err)
}
