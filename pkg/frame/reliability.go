package frame

import (
	"encoding/binary"
)

// ReliabilityInfo carries delivery and ordering metadata for a frame.
// The field set is forward-reserved: bytes following the known fields are
// kept verbatim in Extra and written back on re-encode, so metadata added
// by newer versions survives a round-trip through this one.
type ReliabilityInfo struct {
	MessageID     string
	ChannelID     string
	Lamport       uint64
	CausalHistory [][]byte
	Extra         []byte
}

// Encode encodes the reliability info to bytes
func (r *ReliabilityInfo) Encode() []byte {
	size := 4 + len(r.MessageID) + 4 + len(r.ChannelID) + 8 + 2
	for _, h := range r.CausalHistory {
		size += 4 + len(h)
	}
	size += len(r.Extra)

	buf := make([]byte, size)
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(r.MessageID)))
	offset += 4
	copy(buf[offset:], r.MessageID)
	offset += len(r.MessageID)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(r.ChannelID)))
	offset += 4
	copy(buf[offset:], r.ChannelID)
	offset += len(r.ChannelID)

	binary.BigEndian.PutUint64(buf[offset:], r.Lamport)
	offset += 8

	binary.BigEndian.PutUint16(buf[offset:], uint16(len(r.CausalHistory)))
	offset += 2

	for _, h := range r.CausalHistory {
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(h)))
		offset += 4
		copy(buf[offset:], h)
		offset += len(h)
	}

	copy(buf[offset:], r.Extra)

	return buf
}

// Decode decodes reliability info from bytes. Unrecognized trailing bytes
// are preserved in Extra.
func (r *ReliabilityInfo) Decode(buf []byte) error {
	if len(buf) < 4 {
		return ErrFrameTooShort
	}

	idLen := binary.BigEndian.Uint32(buf[0:4])
	offset := 4
	if uint32(len(buf)-offset) < idLen {
		return ErrFrameTooShort
	}
	r.MessageID = string(buf[offset : offset+int(idLen)])
	offset += int(idLen)

	if len(buf) < offset+4 {
		return ErrFrameTooShort
	}
	chLen := binary.BigEndian.Uint32(buf[offset:])
	offset += 4
	if uint32(len(buf)-offset) < chLen {
		return ErrFrameTooShort
	}
	r.ChannelID = string(buf[offset : offset+int(chLen)])
	offset += int(chLen)

	if len(buf) < offset+10 {
		return ErrFrameTooShort
	}
	r.Lamport = binary.BigEndian.Uint64(buf[offset:])
	offset += 8

	count := binary.BigEndian.Uint16(buf[offset:])
	offset += 2

	r.CausalHistory = nil
	for i := 0; i < int(count); i++ {
		if len(buf) < offset+4 {
			return ErrFrameTooShort
		}
		hLen := binary.BigEndian.Uint32(buf[offset:])
		offset += 4

		if uint32(len(buf)-offset) < hLen {
			return ErrFrameTooShort
		}
		h := make([]byte, hLen)
		copy(h, buf[offset:])
		r.CausalHistory = append(r.CausalHistory, h)
		offset += int(hLen)
	}

	r.Extra = nil
	if offset < len(buf) {
		r.Extra = make([]byte, len(buf)-offset)
		copy(r.Extra, buf[offset:])
	}

	return nil
}
