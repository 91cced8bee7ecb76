package apikeys

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretShape(t *testing.T) {
	secret, prefix, hash, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, secret, 2*secretBytes)
	assert.Len(t, prefix, PrefixWidth)
	assert.Equal(t, secret[:PrefixWidth], prefix)

	_, err = hex.DecodeString(secret)
	assert.NoError(t, err)

	assert.Equal(t, HashSecret(secret), hash)
	assert.NotContains(t, hash, secret)
}

func TestGenerateSecretUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		secret, _, _, err := GenerateSecret()
		require.NoError(t, err)
		_, dup := seen[secret]
		require.False(t, dup)
		seen[secret] = struct{}{}
	}
}

func TestSecretMatches(t *testing.T) {
	secret, _, hash, err := GenerateSecret()
	require.NoError(t, err)

	assert.True(t, SecretMatches(secret, hash))
	assert.False(t, SecretMatches(secret+"0", hash))
	assert.False(t, SecretMatches("", hash))
}
