package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savlev/go-savings/internal/config"
)

func TestNewHasher_EmptySecret(t *testing.T) {
	_, err := NewHasher(&config.SecretConfig{SecretKey: ""})
	assert.Error(t, err)
}

func TestHash_Deterministic(t *testing.T) {
	h, err := NewHasher(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	digest1 := h.Hash("correct horse battery staple")
	digest2 := h.Hash("correct horse battery staple")
	assert.Equal(t, digest1, digest2)
	assert.NotEqual(t, digest1, h.Hash("correct horse battery stapl"))
	assert.NotEqual(t, "correct horse battery staple", digest1)
}

func TestHash_SecretDependent(t *testing.T) {
	h1, err := NewHasher(&config.SecretConfig{SecretKey: "secret-one"})
	require.NoError(t, err)
	h2, err := NewHasher(&config.SecretConfig{SecretKey: "secret-two"})
	require.NoError(t, err)
	assert.NotEqual(t, h1.Hash("password"), h2.Hash("password"))
}

func TestVerify(t *testing.T) {
	h, err := NewHasher(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	digest := h.Hash("password123")
	assert.True(t, h.Verify("password123", digest))
	assert.False(t, h.Verify("password124", digest))
	assert.False(t, h.Verify("password123", digest+"00"))
}
