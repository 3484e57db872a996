package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/zentalk/envelope/pkg/envelope"
)

// HKDF context string for ECIES key derivation
const eciesInfo = "zentalk-ecies-v1"

// ECIES is the hybrid asymmetric cipher: an ephemeral X25519 agreement
// derives a per-message AES-256-GCM key, and the GCM tag authenticates the
// ciphertext. Sealing requires the recipient's public key; opening requires
// the recipient's private key.
type ECIES struct {
	recipientPublic *[32]byte
	privateKey      *[32]byte
}

// NewECIES creates an ECIES cipher. Either key may be nil: a seal-only
// cipher needs only the recipient public key, an open-only cipher needs
// only the private key.
func NewECIES(recipientPublic *[32]byte, privateKey *[32]byte) *ECIES {
	return &ECIES{recipientPublic: recipientPublic, privateKey: privateKey}
}

// Algorithm returns the wire discriminant for ECIES
func (e *ECIES) Algorithm() envelope.Algorithm { return envelope.AlgorithmEcies }

// Seal encrypts plaintext to the recipient public key
func (e *ECIES) Seal(plaintext []byte) (envelope.EncryptedBytes, error) {
	if e.recipientPublic == nil {
		return nil, fmt.Errorf("%w: no recipient public key", ErrInvalidKey)
	}

	var ephPrivate [32]byte
	if _, err := rand.Read(ephPrivate[:]); err != nil {
		return nil, err
	}

	out := &envelope.EciesBytes{}
	curve25519.ScalarBaseMult(&out.EphemeralKey, &ephPrivate)

	key, err := deriveKey(&ephPrivate, e.recipientPublic)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if _, err := rand.Read(out.Nonce[:]); err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, out.Nonce[:], plaintext, out.EphemeralKey[:])
	if len(sealed) < envelope.EciesTagSize {
		return nil, ErrEncryptionFailed
	}

	// GCM appends the tag; carry it as a separate wire field.
	split := len(sealed) - envelope.EciesTagSize
	out.Ciphertext = sealed[:split]
	copy(out.Tag[:], sealed[split:])

	return out, nil
}

// Open decrypts ECIES bytes with the private key. On any tag mismatch it
// returns an authentication failure and no plaintext.
func (e *ECIES) Open(enc envelope.EncryptedBytes) ([]byte, error) {
	v, ok := enc.(*envelope.EciesBytes)
	if !ok {
		return nil, fmt.Errorf("%w: %d", envelope.ErrUnsupportedAlgorithm, enc.Algorithm())
	}
	if e.privateKey == nil {
		return nil, fmt.Errorf("%w: no private key", ErrInvalidKey)
	}

	key, err := deriveKey(e.privateKey, &v.EphemeralKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(v.Ciphertext)+envelope.EciesTagSize)
	sealed = append(sealed, v.Ciphertext...)
	sealed = append(sealed, v.Tag[:]...)

	plaintext, err := gcm.Open(nil, v.Nonce[:], sealed, v.EphemeralKey[:])
	if err != nil {
		return nil, envelope.ErrAuthentication
	}

	return plaintext, nil
}

// deriveKey runs the X25519 agreement and expands the shared secret into an
// AES-256 key with HKDF-SHA-256.
func deriveKey(private *[32]byte, public *[32]byte) ([]byte, error) {
	shared, err := curve25519.X25519(private[:], public[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, shared, nil, []byte(eciesInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}

	return key, nil
}
