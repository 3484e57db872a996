// Package signed implements the sign-then-encrypt composition.
//
// A SignedFrame wraps payload bytes with a multisig signature computed over
// a domain-separated byte string, and is produced before the payload is
// sealed into an encryption envelope. Verification runs after the envelope
// is opened and must succeed before the payload bytes are trusted for
// further decoding.
//
// Signing before encrypting means the signature covers the plaintext
// semantics rather than ciphertext bytes, which closes the
// surreptitious-forwarding hole where an attacker re-encrypts a
// validly-signed plaintext under a different key.
//
// The byte string actually signed is Context.Bytes() || payload. The
// context encodes the protocol identifier and a purpose label, so a
// signature valid for one purpose can never be replayed as valid for
// another.
package signed

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zentalk/envelope/pkg/wire"
)

// Signer public key size (32 bytes, Ed25519-compatible)
const PublicKeySize = 32

var (
	ErrSignedFrameTooShort    = errors.New("signed frame buffer too short")
	ErrNoSignatures           = errors.New("signed frame carries no signatures")
	ErrInsufficientSignatures = errors.New("insufficient valid signatures")
	ErrVerification           = errors.New("signature verification failed")
	ErrBadPolicy              = errors.New("invalid signature policy")
	ErrEmptyPurpose           = errors.New("domain context purpose is empty")
)

// Scheme is the signature capability the composer calls into. The concrete
// primitive is supplied externally.
type Scheme interface {
	Sign(privateKey []byte, msg []byte) ([]byte, error)
	Verify(publicKey [PublicKeySize]byte, msg, sig []byte) bool
}

// Context is the domain-separation label a signature is bound to: the
// protocol identifier plus a purpose string distinguishing, for example,
// application frame signatures from control frame signatures.
type Context struct {
	Protocol wire.ProtocolTag
	Purpose  string
}

// Bytes returns the canonical encoding of the context, prepended to the
// payload before signing.
func (c Context) Bytes() []byte {
	buf := make([]byte, 4+4+len(c.Purpose))
	binary.BigEndian.PutUint32(buf[0:4], uint32(c.Protocol))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(c.Purpose)))
	copy(buf[8:], c.Purpose)
	return buf
}

// Signature is one signer's contribution: the signer's public key and the
// signature bytes.
type Signature struct {
	PublicKey [PublicKeySize]byte
	Sig       []byte
}

// SignedFrame pairs payload bytes with the signatures that vouch for them.
type SignedFrame struct {
	Signatures []Signature
	Payload    []byte
}

// Encode encodes the signed frame to bytes
func (s *SignedFrame) Encode() []byte {
	size := 2
	for _, sig := range s.Signatures {
		size += PublicKeySize + 2 + len(sig.Sig)
	}
	size += 4 + len(s.Payload)

	buf := make([]byte, size)
	offset := 0

	binary.BigEndian.PutUint16(buf[offset:], uint16(len(s.Signatures)))
	offset += 2

	for _, sig := range s.Signatures {
		copy(buf[offset:], sig.PublicKey[:])
		offset += PublicKeySize

		binary.BigEndian.PutUint16(buf[offset:], uint16(len(sig.Sig)))
		offset += 2
		copy(buf[offset:], sig.Sig)
		offset += len(sig.Sig)
	}

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(s.Payload)))
	offset += 4
	copy(buf[offset:], s.Payload)

	return buf
}

// Decode decodes a signed frame from bytes
func (s *SignedFrame) Decode(buf []byte) error {
	if len(buf) < 2 {
		return ErrSignedFrameTooShort
	}

	count := binary.BigEndian.Uint16(buf[0:2])
	offset := 2

	s.Signatures = make([]Signature, 0, count)
	for i := 0; i < int(count); i++ {
		if len(buf) < offset+PublicKeySize+2 {
			return ErrSignedFrameTooShort
		}

		var sig Signature
		copy(sig.PublicKey[:], buf[offset:])
		offset += PublicKeySize

		sigLen := binary.BigEndian.Uint16(buf[offset:])
		offset += 2

		if len(buf) < offset+int(sigLen) {
			return ErrSignedFrameTooShort
		}
		sig.Sig = make([]byte, sigLen)
		copy(sig.Sig, buf[offset:])
		offset += int(sigLen)

		s.Signatures = append(s.Signatures, sig)
	}

	if len(buf) < offset+4 {
		return ErrSignedFrameTooShort
	}
	payloadLen := binary.BigEndian.Uint32(buf[offset:])
	offset += 4

	if uint32(len(buf)-offset) != payloadLen {
		return fmt.Errorf("%w: payload length mismatch", ErrSignedFrameTooShort)
	}
	s.Payload = make([]byte, payloadLen)
	copy(s.Payload, buf[offset:])

	return nil
}

// SigningKey pairs a signer's public key with its private key material.
// The key material is borrowed for the duration of the call only.
type SigningKey struct {
	PublicKey  [PublicKeySize]byte
	PrivateKey []byte
}

// Compose signs the payload under the domain context with each of the given
// keys and wraps payload and signatures into a SignedFrame. The result is
// meant to be sealed into an encryption envelope afterwards.
func Compose(payload []byte, ctx Context, scheme Scheme, keys ...SigningKey) (*SignedFrame, error) {
	if ctx.Purpose == "" {
		return nil, ErrEmptyPurpose
	}
	if len(keys) == 0 {
		return nil, ErrNoSignatures
	}

	msg := signedBytes(ctx, payload)

	frame := &SignedFrame{
		Signatures: make([]Signature, 0, len(keys)),
		Payload:    payload,
	}

	for _, key := range keys {
		sig, err := scheme.Sign(key.PrivateKey, msg)
		if err != nil {
			return nil, err
		}
		frame.Signatures = append(frame.Signatures, Signature{PublicKey: key.PublicKey, Sig: sig})
	}

	return frame, nil
}

// Policy declares the signer set and the threshold of valid signatures
// required for a frame to verify.
type Policy struct {
	Threshold int
	Signers   [][PublicKeySize]byte
}

// NewPolicy builds a threshold policy after validating it.
func NewPolicy(threshold int, signers ...[PublicKeySize]byte) (Policy, error) {
	if threshold < 1 || threshold > len(signers) {
		return Policy{}, fmt.Errorf("%w: threshold %d of %d signers", ErrBadPolicy, threshold, len(signers))
	}
	return Policy{Threshold: threshold, Signers: signers}, nil
}

func (p Policy) declared(key [PublicKeySize]byte) bool {
	for _, s := range p.Signers {
		if s == key {
			return true
		}
	}
	return false
}

// Decompose decodes opened envelope bytes into a SignedFrame and verifies
// it against the domain context and policy. It returns the payload bytes
// only after the threshold is met; signatures from keys outside the
// declared signer set are ignored.
func Decompose(openedBytes []byte, ctx Context, scheme Scheme, policy Policy) ([]byte, error) {
	frame := &SignedFrame{}
	if err := frame.Decode(openedBytes); err != nil {
		return nil, err
	}
	return Verify(frame, ctx, scheme, policy)
}

// Verify checks a decoded SignedFrame against the domain context and
// policy, returning the payload on success.
func Verify(frame *SignedFrame, ctx Context, scheme Scheme, policy Policy) ([]byte, error) {
	if policy.Threshold < 1 || policy.Threshold > len(policy.Signers) {
		return nil, fmt.Errorf("%w: threshold %d of %d signers", ErrBadPolicy, policy.Threshold, len(policy.Signers))
	}
	if len(frame.Signatures) == 0 {
		return nil, ErrNoSignatures
	}

	msg := signedBytes(ctx, frame.Payload)

	valid := make(map[[PublicKeySize]byte]bool)
	for _, sig := range frame.Signatures {
		if !policy.declared(sig.PublicKey) {
			continue
		}
		if valid[sig.PublicKey] {
			continue
		}
		if scheme.Verify(sig.PublicKey, msg, sig.Sig) {
			valid[sig.PublicKey] = true
		}
	}

	if len(valid) < policy.Threshold {
		return nil, fmt.Errorf("%w: %d of %d required", ErrInsufficientSignatures, len(valid), policy.Threshold)
	}

	return frame.Payload, nil
}

func signedBytes(ctx Context, payload []byte) []byte {
	ctxBytes := ctx.Bytes()
	msg := make([]byte, 0, len(ctxBytes)+len(payload))
	msg = append(msg, ctxBytes...)
	return append(msg, payload...)
}
