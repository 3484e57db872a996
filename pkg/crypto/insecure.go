package crypto

import (
	"fmt"

	"github.com/zentalk/envelope/pkg/envelope"
)

// Plaintext is the identity transform. It exists for tests and migration
// scaffolding; keyrings reject it unless explicitly configured otherwise.
type Plaintext struct{}

// Algorithm returns the wire discriminant for the plaintext variant
func (Plaintext) Algorithm() envelope.Algorithm { return envelope.AlgorithmPlaintext }

// Seal wraps the plaintext unchanged
func (Plaintext) Seal(plaintext []byte) (envelope.EncryptedBytes, error) {
	b := make([]byte, len(plaintext))
	copy(b, plaintext)
	return &envelope.PlaintextBytes{Bytes: b}, nil
}

// Open returns the wrapped bytes unchanged
func (Plaintext) Open(enc envelope.EncryptedBytes) ([]byte, error) {
	v, ok := enc.(*envelope.PlaintextBytes)
	if !ok {
		return nil, fmt.Errorf("%w: %d", envelope.ErrUnsupportedAlgorithm, enc.Algorithm())
	}

	b := make([]byte, len(v.Bytes))
	copy(b, v.Bytes)
	return b, nil
}

// Reversed is the byte-reversal transform, kept as an obviously breakable
// stand-in cipher for tests.
type Reversed struct{}

// Algorithm returns the wire discriminant for the reversed variant
func (Reversed) Algorithm() envelope.Algorithm { return envelope.AlgorithmReversed }

// Seal reverses the plaintext bytes
func (Reversed) Seal(plaintext []byte) (envelope.EncryptedBytes, error) {
	return &envelope.ReversedBytes{Bytes: reverse(plaintext)}, nil
}

// Open reverses the bytes back
func (Reversed) Open(enc envelope.EncryptedBytes) ([]byte, error) {
	v, ok := enc.(*envelope.ReversedBytes)
	if !ok {
		return nil, fmt.Errorf("%w: %d", envelope.ErrUnsupportedAlgorithm, enc.Algorithm())
	}
	return reverse(v.Bytes), nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
