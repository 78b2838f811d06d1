package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCode(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		code, err := RoomCode()
		require.NoError(t, err)
		require.Len(t, code, RoomCodeLength)

		for _, char := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, char),
				"code %q contains character outside the alphabet", code)
		}
		seen[code] = struct{}{}
	}

	// 200 draws from a 32^6 space colliding would point at broken randomness.
	assert.Greater(t, len(seen), 190)
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeRoomCode("abc234"))
	assert.Equal(t, "ABC234", NormalizeRoomCode("  AbC234 "))
	assert.Equal(t, "", NormalizeRoomCode("   "))
}

func TestIsValidRoomCode(t *testing.T) {
	valid, err := RoomCode()
	require.NoError(t, err)
	assert.True(t, IsValidRoomCode(valid))

	assert.False(t, IsValidRoomCode(""))
	assert.False(t, IsValidRoomCode("ABC23"))      // too short
	assert.False(t, IsValidRoomCode("ABC2345"))    // too long
	assert.False(t, IsValidRoomCode("ABC10O"))     // excluded characters
	assert.False(t, IsValidRoomCode("abc234"))     // not normalized
	assert.False(t, IsValidRoomCode("ABC 34"))     // whitespace
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
