package frame

import (
	"fmt"

	"github.com/zentalk/envelope/pkg/content"
)

// Public frame discriminants
const (
	discriminantContact byte = 1
)

// PublicContent is the sealed set of public frame variants.
type PublicContent interface {
	publicDiscriminant() byte
}

// PublicContact wraps a contact card published without encryption.
type PublicContact struct {
	Contact *content.Contact
}

func (*PublicContact) publicDiscriminant() byte { return discriminantContact }

// PublicFrame carries unencrypted directory content such as contact cards.
// It travels under its own top-level payload tag, outside any envelope.
type PublicFrame struct {
	Content PublicContent
}

// Encode encodes the public frame to bytes
func (p *PublicFrame) Encode() ([]byte, error) {
	if p.Content == nil {
		return nil, fmt.Errorf("%w: no public content variant", ErrMalformedFrame)
	}

	switch v := p.Content.(type) {
	case *PublicContact:
		inner := v.Contact.Encode()
		buf := make([]byte, 1+len(inner))
		buf[0] = v.publicDiscriminant()
		copy(buf[1:], inner)
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: unknown public content variant %T", ErrMalformedFrame, p.Content)
	}
}

// Decode decodes a public frame from bytes
func (p *PublicFrame) Decode(buf []byte) error {
	if len(buf) < 1 {
		return ErrFrameTooShort
	}

	switch buf[0] {
	case discriminantContact:
		c := &content.Contact{}
		if err := c.Decode(buf[1:]); err != nil {
			return err
		}
		p.Content = &PublicContact{Contact: c}
		return nil

	case discriminantNone:
		return fmt.Errorf("%w: no public content variant", ErrMalformedFrame)

	default:
		return fmt.Errorf("%w: unknown public content discriminant %#x", ErrMalformedFrame, buf[0])
	}
}
