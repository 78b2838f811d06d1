/*
Package randx generates the identifiers used across the system:
cryptographically random room codes and UUID entity ids.

Room codes are six characters from an uppercase alphabet with the easily
confused characters (0/O, 1/I) removed, so codes survive being read aloud or
retyped. Codes are case-insensitive: lookups normalize to uppercase.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// CodeAlphabet is the character set for room codes.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// RoomCodeLength is the fixed length of a room code.
	RoomCodeLength = 6
)

var alphabetLen = big.NewInt(int64(len(CodeAlphabet)))

// RoomCode generates a random room code of RoomCodeLength characters using
// crypto/rand.
func RoomCode() (string, error) {
	code := make([]byte, RoomCodeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random room code character: %w", err)
		}
		code[i] = CodeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// NormalizeRoomCode uppercases and trims a user-supplied code so lookups are
// case-insensitive.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode reports whether the (already normalized) code has the right
// length and alphabet.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for _, char := range code {
		if !strings.ContainsRune(CodeAlphabet, char) {
			return false
		}
	}
	return true
}

// NewID generates a UUID v4 string for rooms, messages and connections.
func NewID() string {
	return uuid.New().String()
}
