package envelope

import (
	"encoding/binary"
	"errors"
)

var ErrEnvelopeTooShort = errors.New("envelope buffer too short")

// Envelope binds encrypted bytes to the conversation they belong to. The
// conversation id is the context a receiver uses to route the ciphertext to
// the right keys.
type Envelope struct {
	Encrypted      EncryptedBytes
	ConversationID string
}

// Encode encodes the envelope to bytes
func (e *Envelope) Encode() ([]byte, error) {
	enc, err := EncodeEncrypted(e.Encrypted)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4+len(e.ConversationID)+len(enc))
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(e.ConversationID)))
	offset += 4
	copy(buf[offset:], e.ConversationID)
	offset += len(e.ConversationID)

	copy(buf[offset:], enc)

	return buf, nil
}

// Decode decodes an envelope from bytes
func (e *Envelope) Decode(buf []byte) error {
	if len(buf) < 4 {
		return ErrEnvelopeTooShort
	}

	idLen := binary.BigEndian.Uint32(buf[0:4])
	offset := 4
	if uint32(len(buf)-offset) < idLen {
		return ErrEnvelopeTooShort
	}

	e.ConversationID = string(buf[offset : offset+int(idLen)])
	offset += int(idLen)

	enc, err := DecodeEncrypted(buf[offset:])
	if err != nil {
		return err
	}
	e.Encrypted = enc

	return nil
}

// DecodeEnvelope decodes an envelope from bytes
func DecodeEnvelope(buf []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := e.Decode(buf); err != nil {
		return nil, err
	}
	return e, nil
}
