package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/zentalk/envelope/pkg/envelope"
)

// AES256CTR is the symmetric stream cipher over a caller-supplied 256-bit
// key. CTR mode carries no integrity: opening with the wrong key yields
// garbage, not an error. Integrity comes from the outer signature layer.
type AES256CTR struct {
	key [32]byte
}

// NewAES256CTR creates a CTR cipher over a 32-byte key
func NewAES256CTR(key []byte) (*AES256CTR, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: AES-256 needs a 32-byte key, got %d", ErrInvalidKey, len(key))
	}

	c := &AES256CTR{}
	copy(c.key[:], key)
	return c, nil
}

// Algorithm returns the wire discriminant for AES-256-CTR
func (c *AES256CTR) Algorithm() envelope.Algorithm { return envelope.AlgorithmAes256Ctr }

// Seal encrypts plaintext under a fresh random IV
func (c *AES256CTR) Seal(plaintext []byte) (envelope.EncryptedBytes, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}

	out := &envelope.Aes256CtrBytes{Ciphertext: make([]byte, len(plaintext))}
	if _, err := rand.Read(out.IV[:]); err != nil {
		return nil, err
	}

	cipher.NewCTR(block, out.IV[:]).XORKeyStream(out.Ciphertext, plaintext)
	return out, nil
}

// Open decrypts CTR bytes; the algorithmic inverse of Seal.
func (c *AES256CTR) Open(enc envelope.EncryptedBytes) ([]byte, error) {
	v, ok := enc.(*envelope.Aes256CtrBytes)
	if !ok {
		return nil, fmt.Errorf("%w: %d", envelope.ErrUnsupportedAlgorithm, enc.Algorithm())
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(v.Ciphertext))
	cipher.NewCTR(block, v.IV[:]).XORKeyStream(plaintext, v.Ciphertext)
	return plaintext, nil
}
