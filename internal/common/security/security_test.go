package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
	assert.False(t, CheckPasswordHash("hunter22", ""))
}

func TestGenerateAndDecodeToken(t *testing.T) {
	auth := NewTokenAuth([]byte("test-secret"), time.Hour)

	session, err := auth.GenerateToken("user-1", true)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := auth.Decode(session.Token)
	require.NoError(t, err)

	userID, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	assert.Equal(t, RoleAdmin, claims["role"])

	jti, err := GetTokenIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, session.TokenID, jti)

	exp, err := GetExpiryFromClaims(claims)
	require.NoError(t, err)
	assert.WithinDuration(t, session.ExpiresAt, exp, 2*time.Second)
}

func TestDecodeRejectsForeignToken(t *testing.T) {
	issuer := NewTokenAuth([]byte("secret-a"), time.Hour)
	verifier := NewTokenAuth([]byte("secret-b"), time.Hour)

	session, err := issuer.GenerateToken("user-1", false)
	require.NoError(t, err)

	_, err = verifier.Decode(session.Token)
	assert.Error(t, err)
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	auth := NewTokenAuth([]byte("secret"), -time.Minute)
	session, err := auth.GenerateToken("user-1", false)
	require.NoError(t, err)

	_, err = auth.Decode(session.Token)
	assert.Error(t, err)
}
