package envelope

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported encryption algorithm")
	ErrInsecureAlgorithm    = errors.New("insecure algorithm rejected")
	ErrAuthentication       = errors.New("authentication failure")
	ErrDecryption           = errors.New("decryption failure")
)

// Cipher is the capability interface the envelope calls into. Concrete
// primitives live outside this package; a Cipher owns whatever key material
// its scheme needs. Implementations must not return partially decrypted
// bytes: on any integrity or key mismatch they return ErrAuthentication or
// ErrDecryption (wrapped or bare) and a nil slice.
type Cipher interface {
	Algorithm() Algorithm
	Seal(plaintext []byte) (EncryptedBytes, error)
	Open(enc EncryptedBytes) ([]byte, error)
}

// Options configures keyring behavior.
type Options struct {
	// AllowInsecure enables the Plaintext and Reversed scaffolding
	// variants. Off by default; production keyrings reject those
	// variants on both seal and open.
	AllowInsecure bool
}

// Keyring holds the ciphers available for sealing and opening envelopes.
// It is built once and read-only afterwards; a built keyring is safe for
// concurrent use. The keyring never retains caller plaintext or output
// beyond the duration of a call.
type Keyring struct {
	opts    Options
	ciphers map[Algorithm]Cipher
}

// NewKeyring builds a keyring from the given ciphers. Two ciphers claiming
// the same algorithm is a configuration error.
func NewKeyring(opts Options, ciphers ...Cipher) (*Keyring, error) {
	k := &Keyring{
		opts:    opts,
		ciphers: make(map[Algorithm]Cipher, len(ciphers)),
	}

	for _, c := range ciphers {
		algo := c.Algorithm()
		if algo == AlgorithmUnknown || algo == AlgorithmOpaque {
			return nil, fmt.Errorf("cipher claims reserved algorithm %d", algo)
		}
		if _, exists := k.ciphers[algo]; exists {
			return nil, fmt.Errorf("duplicate cipher for algorithm %d", algo)
		}
		k.ciphers[algo] = c
	}

	return k, nil
}

// Seal encrypts plaintext under the caller-selected algorithm. There is no
// algorithm negotiation: the caller directs the choice.
func (k *Keyring) Seal(plaintext []byte, algo Algorithm) (EncryptedBytes, error) {
	if err := k.checkInsecure(algo); err != nil {
		return nil, err
	}

	cipher, ok := k.ciphers[algo]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, algo)
	}

	return cipher.Seal(plaintext)
}

// Open decrypts encrypted bytes. The variant on the wire directs cipher
// selection; a variant with no matching cipher fails closed.
func (k *Keyring) Open(enc EncryptedBytes) ([]byte, error) {
	if enc == nil {
		return nil, ErrNoVariant
	}

	algo := enc.Algorithm()
	if algo == AlgorithmOpaque {
		return nil, fmt.Errorf("%w: unrecognized variant", ErrUnsupportedAlgorithm)
	}
	if err := k.checkInsecure(algo); err != nil {
		return nil, err
	}

	cipher, ok := k.ciphers[algo]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, algo)
	}

	return cipher.Open(enc)
}

func (k *Keyring) checkInsecure(algo Algorithm) error {
	if algo != AlgorithmPlaintext && algo != AlgorithmReversed {
		return nil
	}
	if !k.opts.AllowInsecure {
		return fmt.Errorf("%w: algorithm %d", ErrInsecureAlgorithm, algo)
	}
	return nil
}
