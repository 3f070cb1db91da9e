package common

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err)

	empty, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMakeRandBase64String_RefreshTokenSize(t *testing.T) {
	s, err := MakeRandBase64String(RefreshTokenBytes)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, RefreshTokenBytes)
	// 32 bytes encode to 44 chars with one pad
	assert.Len(t, s, 44)
}

func TestMakeRandBase64String_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		s, err := MakeRandBase64String(RefreshTokenBytes)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate value after %d draws", i)
		seen[s] = struct{}{}
	}
}
