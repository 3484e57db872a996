package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Algorithm identifies an encryption scheme variant on the wire.
type Algorithm uint8

// Wire discriminants for EncryptedBytes variants. Zero is reserved.
const (
	AlgorithmUnknown   Algorithm = 0
	AlgorithmEcies     Algorithm = 1
	AlgorithmAes256Ctr Algorithm = 2
	AlgorithmPlaintext Algorithm = 3
	AlgorithmReversed  Algorithm = 4
	AlgorithmOpaque    Algorithm = 5
)

// ECIES wire field sizes
const (
	EciesEphemeralKeySize = 32
	EciesNonceSize        = 12
	EciesTagSize          = 16
)

// CTR IV size
const Aes256CtrIVSize = 16

var (
	ErrEncryptedTooShort = errors.New("encrypted bytes buffer too short")
	ErrEncryptedLength   = errors.New("encrypted bytes length mismatch")
	ErrNoVariant         = errors.New("encrypted bytes has no variant")
)

// EncryptedBytes is the sealed union of encryption scheme outputs. Exactly
// one variant is ever present; the variant type is the wire discriminant.
type EncryptedBytes interface {
	Algorithm() Algorithm
}

// EciesBytes is the output of the hybrid asymmetric scheme: an ephemeral
// public key, an authentication tag and the ciphertext.
type EciesBytes struct {
	EphemeralKey [EciesEphemeralKeySize]byte
	Nonce        [EciesNonceSize]byte
	Tag          [EciesTagSize]byte
	Ciphertext   []byte
}

func (*EciesBytes) Algorithm() Algorithm { return AlgorithmEcies }

// Aes256CtrBytes is the output of the symmetric stream cipher. CTR mode
// carries no integrity; any integrity requirement is satisfied by an outer
// signature, never by this variant.
type Aes256CtrBytes struct {
	IV         [Aes256CtrIVSize]byte
	Ciphertext []byte
}

func (*Aes256CtrBytes) Algorithm() Algorithm { return AlgorithmAes256Ctr }

// PlaintextBytes is the identity transform. Test and migration scaffolding
// only; rejected by default on open.
type PlaintextBytes struct {
	Bytes []byte
}

func (*PlaintextBytes) Algorithm() Algorithm { return AlgorithmPlaintext }

// ReversedBytes is the byte-reversal transform. Test scaffolding only;
// rejected by default on open.
type ReversedBytes struct {
	Bytes []byte
}

func (*ReversedBytes) Algorithm() Algorithm { return AlgorithmReversed }

// OpaqueBytes holds a variant this version does not recognize. The raw
// discriminant and bytes are preserved so the unit can be re-encoded and
// forwarded; opening it always fails closed.
type OpaqueBytes struct {
	Algo Algorithm
	Raw  []byte
}

func (o *OpaqueBytes) Algorithm() Algorithm { return AlgorithmOpaque }

// EncodeEncrypted encodes an EncryptedBytes variant to bytes. The first
// byte is the algorithm discriminant.
func EncodeEncrypted(enc EncryptedBytes) ([]byte, error) {
	switch v := enc.(type) {
	case *EciesBytes:
		buf := make([]byte, 1+EciesEphemeralKeySize+EciesNonceSize+EciesTagSize+4+len(v.Ciphertext))
		offset := 0

		buf[offset] = byte(AlgorithmEcies)
		offset++
		copy(buf[offset:], v.EphemeralKey[:])
		offset += EciesEphemeralKeySize
		copy(buf[offset:], v.Nonce[:])
		offset += EciesNonceSize
		copy(buf[offset:], v.Tag[:])
		offset += EciesTagSize
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(v.Ciphertext)))
		offset += 4
		copy(buf[offset:], v.Ciphertext)
		return buf, nil

	case *Aes256CtrBytes:
		buf := make([]byte, 1+Aes256CtrIVSize+4+len(v.Ciphertext))
		offset := 0

		buf[offset] = byte(AlgorithmAes256Ctr)
		offset++
		copy(buf[offset:], v.IV[:])
		offset += Aes256CtrIVSize
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(v.Ciphertext)))
		offset += 4
		copy(buf[offset:], v.Ciphertext)
		return buf, nil

	case *PlaintextBytes:
		return encodeRawVariant(AlgorithmPlaintext, v.Bytes), nil

	case *ReversedBytes:
		return encodeRawVariant(AlgorithmReversed, v.Bytes), nil

	case *OpaqueBytes:
		buf := make([]byte, 1+len(v.Raw))
		buf[0] = byte(v.Algo)
		copy(buf[1:], v.Raw)
		return buf, nil

	case nil:
		return nil, ErrNoVariant

	default:
		return nil, fmt.Errorf("unknown encrypted bytes variant %T", enc)
	}
}

// DecodeEncrypted decodes an EncryptedBytes variant from bytes. A
// discriminant this version does not recognize decodes to *OpaqueBytes with
// the raw bytes preserved.
func DecodeEncrypted(buf []byte) (EncryptedBytes, error) {
	if len(buf) < 1 {
		return nil, ErrEncryptedTooShort
	}

	algo := Algorithm(buf[0])
	body := buf[1:]

	switch algo {
	case AlgorithmEcies:
		fixed := EciesEphemeralKeySize + EciesNonceSize + EciesTagSize + 4
		if len(body) < fixed {
			return nil, ErrEncryptedTooShort
		}

		v := &EciesBytes{}
		offset := 0
		copy(v.EphemeralKey[:], body[offset:])
		offset += EciesEphemeralKeySize
		copy(v.Nonce[:], body[offset:])
		offset += EciesNonceSize
		copy(v.Tag[:], body[offset:])
		offset += EciesTagSize

		length := binary.BigEndian.Uint32(body[offset:])
		offset += 4
		if uint32(len(body)-offset) != length {
			return nil, ErrEncryptedLength
		}
		v.Ciphertext = make([]byte, length)
		copy(v.Ciphertext, body[offset:])
		return v, nil

	case AlgorithmAes256Ctr:
		if len(body) < Aes256CtrIVSize+4 {
			return nil, ErrEncryptedTooShort
		}

		v := &Aes256CtrBytes{}
		copy(v.IV[:], body[:Aes256CtrIVSize])

		length := binary.BigEndian.Uint32(body[Aes256CtrIVSize:])
		rest := body[Aes256CtrIVSize+4:]
		if uint32(len(rest)) != length {
			return nil, ErrEncryptedLength
		}
		v.Ciphertext = make([]byte, length)
		copy(v.Ciphertext, rest)
		return v, nil

	case AlgorithmPlaintext:
		raw, err := decodeRawVariant(body)
		if err != nil {
			return nil, err
		}
		return &PlaintextBytes{Bytes: raw}, nil

	case AlgorithmReversed:
		raw, err := decodeRawVariant(body)
		if err != nil {
			return nil, err
		}
		return &ReversedBytes{Bytes: raw}, nil

	case AlgorithmUnknown:
		return nil, ErrNoVariant

	default:
		raw := make([]byte, len(body))
		copy(raw, body)
		return &OpaqueBytes{Algo: algo, Raw: raw}, nil
	}
}

func encodeRawVariant(algo Algorithm, b []byte) []byte {
	buf := make([]byte, 1+4+len(b))
	buf[0] = byte(algo)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(b)))
	copy(buf[5:], b)
	return buf
}

func decodeRawVariant(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, ErrEncryptedTooShort
	}

	length := binary.BigEndian.Uint32(body[0:4])
	if uint32(len(body)-4) != length {
		return nil, ErrEncryptedLength
	}

	raw := make([]byte, length)
	copy(raw, body[4:])
	return raw, nil
}
