package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrInvalidPadding = errors.New("invalid padding")

// Standard cell sizes
const (
	CellSize512  = 512
	CellSize1024 = 1024
	CellSize4096 = 4096
	CellSize8192 = 8192
)

// PaddingScheme represents different padding strategies
type PaddingScheme int

const (
	// PaddingNone - no padding (original message size)
	PaddingNone PaddingScheme = iota

	// PaddingFixedSize - pad to nearest fixed cell size
	PaddingFixedSize

	// PaddingRandom - add 0-255 bytes of random padding
	PaddingRandom
)

// Pad hides the plaintext length before sealing by padding it with random
// bytes. The output is self-delimiting: a 4-byte original length followed
// by the padded message.
func Pad(message []byte, scheme PaddingScheme) ([]byte, error) {
	originalLen := len(message)

	var targetSize int
	switch scheme {
	case PaddingNone:
		targetSize = originalLen

	case PaddingFixedSize:
		switch {
		case originalLen <= CellSize512:
			targetSize = CellSize512
		case originalLen <= CellSize1024:
			targetSize = CellSize1024
		case originalLen <= CellSize4096:
			targetSize = CellSize4096
		case originalLen <= CellSize8192:
			targetSize = CellSize8192
		default:
			// Round very large messages up to the nearest 8KB.
			targetSize = ((originalLen + CellSize8192 - 1) / CellSize8192) * CellSize8192
		}

	case PaddingRandom:
		var randomByte [1]byte
		if _, err := rand.Read(randomByte[:]); err != nil {
			return nil, fmt.Errorf("failed to generate random length: %w", err)
		}
		targetSize = originalLen + int(randomByte[0])

	default:
		return nil, fmt.Errorf("unknown padding scheme: %d", scheme)
	}

	padded := make([]byte, 4+targetSize)
	binary.BigEndian.PutUint32(padded[0:4], uint32(originalLen))
	copy(padded[4:], message)

	// Random fill makes padding indistinguishable from ciphertext.
	if targetSize > originalLen {
		if _, err := rand.Read(padded[4+originalLen:]); err != nil {
			return nil, fmt.Errorf("failed to generate padding: %w", err)
		}
	}

	return padded, nil
}

// Unpad recovers the original message from a padded buffer
func Unpad(padded []byte) ([]byte, error) {
	if len(padded) < 4 {
		return nil, ErrInvalidPadding
	}

	originalLen := binary.BigEndian.Uint32(padded[0:4])
	if uint32(len(padded)-4) < originalLen {
		return nil, ErrInvalidPadding
	}

	message := make([]byte, originalLen)
	copy(message, padded[4:])
	return message, nil
}
