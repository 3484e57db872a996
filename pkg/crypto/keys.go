// Package crypto supplies the concrete cryptographic capabilities the
// envelope and signed packages call into: ECIES hybrid encryption,
// AES-256-CTR, the insecure test transforms, Ed25519 multisig and SHA3
// hashing.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrEncryptionFailed = errors.New("encryption failed")
)

// BoxKeyPair is an X25519 key pair used for ECIES key agreement.
type BoxKeyPair struct {
	PublicKey  [32]byte
	PrivateKey [32]byte
}

// GenerateBoxKeyPair generates a new X25519 key pair
func GenerateBoxKeyPair() (*BoxKeyPair, error) {
	kp := &BoxKeyPair{}
	if _, err := rand.Read(kp.PrivateKey[:]); err != nil {
		return nil, err
	}

	curve25519.ScalarBaseMult(&kp.PublicKey, &kp.PrivateKey)
	return kp, nil
}

// SigningKeyPair is an Ed25519 key pair used for frame signatures.
type SigningKeyPair struct {
	PublicKey  [32]byte
	PrivateKey ed25519.PrivateKey
}

// GenerateSigningKeyPair generates a new Ed25519 key pair
func GenerateSigningKeyPair() (*SigningKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	kp := &SigningKeyPair{PrivateKey: priv}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}
