package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/zentalk/envelope/pkg/signed"
)

// Ed25519 implements the signature scheme capability for signed frames.
type Ed25519 struct{}

// Sign signs msg with an Ed25519 private key
func (Ed25519) Sign(privateKey []byte, msg []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes, got %d",
			ErrInvalidKey, ed25519.PrivateKeySize, len(privateKey))
	}
	return ed25519.Sign(ed25519.PrivateKey(privateKey), msg), nil
}

// Verify verifies sig over msg against an Ed25519 public key
func (Ed25519) Verify(publicKey [signed.PublicKeySize]byte, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey[:], msg, sig)
}

// SignedKey adapts a SigningKeyPair to the signed frame composer.
func (kp *SigningKeyPair) SignedKey() signed.SigningKey {
	return signed.SigningKey{
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
	}
}
