package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("secret123", "not-a-hash"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	require.NoError(t, err)
	second, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewVerificationToken(t *testing.T) {
	first, err := NewVerificationToken()
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := NewVerificationToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
