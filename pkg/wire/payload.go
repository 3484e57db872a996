package wire

import (
	"encoding/binary"
	"errors"
)

// Wire constants
const (
	// Size of the fixed TaggedPayload header (protocol + tag + length)
	PayloadHeaderSize = 12
)

// ProtocolTag identifies the wire protocol/format version.
type ProtocolTag uint32

// Protocol tags. Zero is reserved and never valid on the wire.
const (
	ProtocolUnknown ProtocolTag = 0
	ProtocolV1      ProtocolTag = 1
)

// PayloadTag identifies the kind of payload carried by a TaggedPayload.
type PayloadTag uint32

// Payload tags. Zero is reserved and never valid on the wire.
const (
	PayloadUnknown     PayloadTag = 0
	PayloadEnvelope    PayloadTag = 1
	PayloadPublicFrame PayloadTag = 2
)

var (
	ErrInvalidProtocolTag = errors.New("protocol tag is zero or reserved")
	ErrInvalidPayloadTag  = errors.New("payload tag is zero or reserved")
	ErrPayloadTooShort    = errors.New("tagged payload too short")
	ErrPayloadLength      = errors.New("tagged payload length mismatch")
)

// TaggedPayload is the root of every transmitted unit: a protocol
// discriminant, a payload-kind tag and opaque payload bytes.
type TaggedPayload struct {
	Protocol ProtocolTag
	Tag      PayloadTag
	Payload  []byte
}

// NewTaggedPayload constructs a payload after range-checking the tags.
// It performs no validation of the payload bytes themselves.
func NewTaggedPayload(protocol ProtocolTag, tag PayloadTag, payload []byte) (*TaggedPayload, error) {
	if protocol == ProtocolUnknown {
		return nil, ErrInvalidProtocolTag
	}
	if tag == PayloadUnknown {
		return nil, ErrInvalidPayloadTag
	}
	return &TaggedPayload{Protocol: protocol, Tag: tag, Payload: payload}, nil
}

// Encode encodes the tagged payload to bytes
func (p *TaggedPayload) Encode() []byte {
	buf := make([]byte, PayloadHeaderSize+len(p.Payload))

	binary.BigEndian.PutUint32(buf[0:4], uint32(p.Protocol))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.Tag))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(p.Payload)))
	copy(buf[12:], p.Payload)

	return buf
}

// Decode decodes a tagged payload from bytes. The payload bytes are copied,
// so the caller may reuse buf after return.
func (p *TaggedPayload) Decode(buf []byte) error {
	if len(buf) < PayloadHeaderSize {
		return ErrPayloadTooShort
	}

	protocol := ProtocolTag(binary.BigEndian.Uint32(buf[0:4]))
	tag := PayloadTag(binary.BigEndian.Uint32(buf[4:8]))
	length := binary.BigEndian.Uint32(buf[8:12])

	if protocol == ProtocolUnknown {
		return ErrInvalidProtocolTag
	}
	if tag == PayloadUnknown {
		return ErrInvalidPayloadTag
	}
	if uint32(len(buf)-PayloadHeaderSize) != length {
		return ErrPayloadLength
	}

	p.Protocol = protocol
	p.Tag = tag
	p.Payload = make([]byte, length)
	copy(p.Payload, buf[PayloadHeaderSize:])

	return nil
}

// DecodePayload decodes a tagged payload from bytes
func DecodePayload(buf []byte) (*TaggedPayload, error) {
	p := &TaggedPayload{}
	if err := p.Decode(buf); err != nil {
		return nil, err
	}
	return p, nil
}
