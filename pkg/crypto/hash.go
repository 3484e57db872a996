package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash generates a SHA3-256 hash
func Hash(data []byte) []byte {
	sum := sha3.Sum256(data)
	return sum[:]
}

// HashString generates a SHA3-256 hash and returns it hex encoded
func HashString(data []byte) string {
	return hex.EncodeToString(Hash(data))
}
