// Package content defines the core content types carried inside content
// frames: chat messages and contact cards. Application-defined content types
// live outside this package and are registered with the frame registry under
// a non-reserved domain.
package content

import (
	"encoding/binary"
	"errors"
)

// Content tags under the reserved core domain. Zero is reserved.
const (
	ContentTagUnknown     uint32 = 0
	ContentTagChatMessage uint32 = 1
	ContentTagContact     uint32 = 2
)

var ErrContentTooShort = errors.New("content buffer too short")

// ChatMessage is a plain text chat message
type ChatMessage struct {
	Text      string
	MessageID string
}

// Encode encodes the chat message to bytes
func (m *ChatMessage) Encode() []byte {
	buf := make([]byte, 4+len(m.Text)+4+len(m.MessageID))
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(m.Text)))
	offset += 4
	copy(buf[offset:], m.Text)
	offset += len(m.Text)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(m.MessageID)))
	offset += 4
	copy(buf[offset:], m.MessageID)

	return buf
}

// Decode decodes a chat message from bytes
func (m *ChatMessage) Decode(buf []byte) error {
	text, rest, err := readBytes(buf)
	if err != nil {
		return err
	}

	id, rest, err := readBytes(rest)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing bytes after chat message")
	}

	m.Text = string(text)
	m.MessageID = string(id)
	return nil
}

// Contact is a public contact card binding a display name and identity key
// to an address.
type Contact struct {
	Address     string
	DisplayName string
	IdentityKey []byte
}

// Encode encodes the contact to bytes
func (c *Contact) Encode() []byte {
	buf := make([]byte, 4+len(c.Address)+4+len(c.DisplayName)+4+len(c.IdentityKey))
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(c.Address)))
	offset += 4
	copy(buf[offset:], c.Address)
	offset += len(c.Address)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(c.DisplayName)))
	offset += 4
	copy(buf[offset:], c.DisplayName)
	offset += len(c.DisplayName)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(c.IdentityKey)))
	offset += 4
	copy(buf[offset:], c.IdentityKey)

	return buf
}

// Decode decodes a contact from bytes
func (c *Contact) Decode(buf []byte) error {
	addr, rest, err := readBytes(buf)
	if err != nil {
		return err
	}

	name, rest, err := readBytes(rest)
	if err != nil {
		return err
	}

	key, rest, err := readBytes(rest)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing bytes after contact")
	}

	c.Address = string(addr)
	c.DisplayName = string(name)
	c.IdentityKey = make([]byte, len(key))
	copy(c.IdentityKey, key)
	return nil
}

// readBytes reads a 4-byte length-prefixed field and returns the field and
// the remaining buffer.
func readBytes(buf []byte) ([]byte, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, ErrContentTooShort
	}

	length := binary.BigEndian.Uint32(buf[0:4])
	if uint32(len(buf)-4) < length {
		return nil, nil, ErrContentTooShort
	}

	return buf[4 : 4+length], buf[4+length:], nil
}
