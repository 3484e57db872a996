package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Content discriminants. Zero means no variant and is malformed on the wire.
const (
	discriminantNone               byte = 0
	discriminantContentFrame       byte = 1
	discriminantConversationInvite byte = 2
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrFrameTooShort  = errors.New("frame buffer too short")
)

// Content is the sealed set of frame content variants.
type Content interface {
	discriminant() byte
}

// ContentFrame carries application content keyed by a (domain, tag) pair.
// The pair resolves through a Registry; the bytes stay opaque to the codec.
type ContentFrame struct {
	Domain uint32
	Tag    uint32
	Bytes  []byte
}

func (*ContentFrame) discriminant() byte { return discriminantContentFrame }

// ConversationInvite asks the receiver to join a conversation with the
// listed participants.
type ConversationInvite struct {
	ConversationID string
	Participants   []string
}

func (*ConversationInvite) discriminant() byte { return discriminantConversationInvite }

// Frame is the logical message unit: optional reliability metadata plus
// exactly one content variant.
type Frame struct {
	Reliability *ReliabilityInfo
	Content     Content
}

// Codec encodes and decodes frames. Content resolution goes through the
// codec's registry snapshot.
type Codec struct {
	registry *Registry
}

// NewCodec creates a frame codec over a registry snapshot
func NewCodec(registry *Registry) *Codec {
	return &Codec{registry: registry}
}

// Encode encodes a frame to bytes
func (c *Codec) Encode(f *Frame) ([]byte, error) {
	if f.Content == nil {
		return nil, fmt.Errorf("%w: no content variant", ErrMalformedFrame)
	}

	var reliability []byte
	if f.Reliability != nil {
		reliability = f.Reliability.Encode()
	}

	variant, err := encodeContent(f.Content)
	if err != nil {
		return nil, err
	}

	size := 1 + 1 + len(variant)
	if f.Reliability != nil {
		size += 4 + len(reliability)
	}

	buf := make([]byte, size)
	offset := 0

	if f.Reliability != nil {
		buf[offset] = 1
		offset++
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(reliability)))
		offset += 4
		copy(buf[offset:], reliability)
		offset += len(reliability)
	} else {
		buf[offset] = 0
		offset++
	}

	buf[offset] = f.Content.discriminant()
	offset++
	copy(buf[offset:], variant)

	return buf, nil
}

// Decode decodes a frame from bytes
func (c *Codec) Decode(buf []byte) (*Frame, error) {
	if len(buf) < 2 {
		return nil, ErrFrameTooShort
	}

	f := &Frame{}
	offset := 0

	hasReliability := buf[offset]
	offset++

	if hasReliability == 1 {
		if len(buf) < offset+4 {
			return nil, ErrFrameTooShort
		}
		length := binary.BigEndian.Uint32(buf[offset:])
		offset += 4

		if uint32(len(buf)-offset) < length {
			return nil, ErrFrameTooShort
		}

		info := &ReliabilityInfo{}
		if err := info.Decode(buf[offset : offset+int(length)]); err != nil {
			return nil, err
		}
		f.Reliability = info
		offset += int(length)
	} else if hasReliability != 0 {
		return nil, fmt.Errorf("%w: bad reliability flag %#x", ErrMalformedFrame, hasReliability)
	}

	if len(buf) < offset+1 {
		return nil, ErrFrameTooShort
	}

	disc := buf[offset]
	offset++

	content, err := decodeContent(disc, buf[offset:])
	if err != nil {
		return nil, err
	}
	f.Content = content

	return f, nil
}

// DecodeContent resolves a content frame's (domain, tag) pair through the
// registry and decodes its bytes into a structured value. Unresolvable pairs
// return an *OpaqueContent wrapper carrying the bytes unmodified.
func (c *Codec) DecodeContent(cf *ContentFrame) (any, error) {
	return c.registry.DecodeContent(cf)
}

func encodeContent(content Content) ([]byte, error) {
	switch v := content.(type) {
	case *ContentFrame:
		buf := make([]byte, 4+4+4+len(v.Bytes))
		binary.BigEndian.PutUint32(buf[0:4], v.Domain)
		binary.BigEndian.PutUint32(buf[4:8], v.Tag)
		binary.BigEndian.PutUint32(buf[8:12], uint32(len(v.Bytes)))
		copy(buf[12:], v.Bytes)
		return buf, nil

	case *ConversationInvite:
		return encodeInvite(v)

	default:
		return nil, fmt.Errorf("%w: unknown content variant %T", ErrMalformedFrame, content)
	}
}

func decodeContent(disc byte, buf []byte) (Content, error) {
	switch disc {
	case discriminantContentFrame:
		if len(buf) < 12 {
			return nil, ErrFrameTooShort
		}
		length := binary.BigEndian.Uint32(buf[8:12])
		if uint32(len(buf)-12) != length {
			return nil, fmt.Errorf("%w: content length mismatch", ErrMalformedFrame)
		}

		cf := &ContentFrame{
			Domain: binary.BigEndian.Uint32(buf[0:4]),
			Tag:    binary.BigEndian.Uint32(buf[4:8]),
			Bytes:  make([]byte, length),
		}
		copy(cf.Bytes, buf[12:])
		return cf, nil

	case discriminantConversationInvite:
		return decodeInvite(buf)

	case discriminantNone:
		return nil, fmt.Errorf("%w: no content variant", ErrMalformedFrame)

	default:
		return nil, fmt.Errorf("%w: unknown content discriminant %#x", ErrMalformedFrame, disc)
	}
}

func encodeInvite(inv *ConversationInvite) ([]byte, error) {
	size := 4 + len(inv.ConversationID) + 2
	for _, p := range inv.Participants {
		size += 4 + len(p)
	}

	buf := make([]byte, size)
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(inv.ConversationID)))
	offset += 4
	copy(buf[offset:], inv.ConversationID)
	offset += len(inv.ConversationID)

	binary.BigEndian.PutUint16(buf[offset:], uint16(len(inv.Participants)))
	offset += 2

	for _, p := range inv.Participants {
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(p)))
		offset += 4
		copy(buf[offset:], p)
		offset += len(p)
	}

	return buf, nil
}

func decodeInvite(buf []byte) (*ConversationInvite, error) {
	if len(buf) < 4 {
		return nil, ErrFrameTooShort
	}

	idLen := binary.BigEndian.Uint32(buf[0:4])
	offset := 4
	if uint32(len(buf)-offset) < idLen {
		return nil, ErrFrameTooShort
	}

	inv := &ConversationInvite{
		ConversationID: string(buf[offset : offset+int(idLen)]),
	}
	offset += int(idLen)

	if len(buf) < offset+2 {
		return nil, ErrFrameTooShort
	}
	count := binary.BigEndian.Uint16(buf[offset:])
	offset += 2

	inv.Participants = make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		if len(buf) < offset+4 {
			return nil, ErrFrameTooShort
		}
		pLen := binary.BigEndian.Uint32(buf[offset:])
		offset += 4

		if uint32(len(buf)-offset) < pLen {
			return nil, ErrFrameTooShort
		}
		inv.Participants = append(inv.Participants, string(buf[offset:offset+int(pLen)]))
		offset += int(pLen)
	}

	if offset != len(buf) {
		return nil, fmt.Errorf("%w: trailing bytes after invite", ErrMalformedFrame)
	}

	return inv, nil
}
