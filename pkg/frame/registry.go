package frame

import (
	"errors"
	"fmt"

	"github.com/zentalk/envelope/pkg/content"
)

// Domain partitioning for ContentFrame dispatch. Domains below
// DomainApplicationMin are reserved for core content types.
const (
	DomainCore           uint32 = 0x0000
	DomainApplicationMin uint32 = 0x0100
)

var (
	ErrRegistryConflict = errors.New("content decoder already registered")
	ErrReservedDomain   = errors.New("domain is reserved for core content")
)

// DecodeContentFunc decodes registered application content bytes into a
// structured value.
type DecodeContentFunc func(b []byte) (any, error)

// OpaqueContent wraps content whose (domain, tag) pair resolved to no
// decoder. The bytes are preserved unmodified so the caller can forward or
// store the frame without interpreting it.
type OpaqueContent struct {
	Domain uint32
	Tag    uint32
	Bytes  []byte
}

type contentKey struct {
	domain uint32
	tag    uint32
}

// Registry maps (domain, tag) pairs to content decoders.
//
// Registration is a startup concern: conflicts surface as errors when
// Register is called, never at decode time. Decoding against a registry
// snapshot is deterministic and side-effect-free; the host must finish all
// registration before the first decode.
type Registry struct {
	decoders map[contentKey]DecodeContentFunc
}

// NewRegistry creates a registry with the core content decoders installed.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[contentKey]DecodeContentFunc)}

	r.decoders[contentKey{DomainCore, content.ContentTagChatMessage}] = func(b []byte) (any, error) {
		msg := &content.ChatMessage{}
		if err := msg.Decode(b); err != nil {
			return nil, err
		}
		return msg, nil
	}
	r.decoders[contentKey{DomainCore, content.ContentTagContact}] = func(b []byte) (any, error) {
		c := &content.Contact{}
		if err := c.Decode(b); err != nil {
			return nil, err
		}
		return c, nil
	}

	return r
}

// Register adds an application content decoder for a (domain, tag) pair.
// The reserved core range is rejected, as is double registration.
func (r *Registry) Register(domain, tag uint32, fn DecodeContentFunc) error {
	if domain < DomainApplicationMin {
		return fmt.Errorf("%w: domain %#x", ErrReservedDomain, domain)
	}
	if fn == nil {
		return errors.New("nil content decoder")
	}

	key := contentKey{domain: domain, tag: tag}
	if _, exists := r.decoders[key]; exists {
		return fmt.Errorf("%w: domain=%#x tag=%#x", ErrRegistryConflict, domain, tag)
	}

	r.decoders[key] = fn
	return nil
}

// DecodeContent resolves a content frame through the registry. Content with
// no registered decoder comes back as *OpaqueContent with the bytes intact.
func (r *Registry) DecodeContent(cf *ContentFrame) (any, error) {
	fn, ok := r.decoders[contentKey{domain: cf.Domain, tag: cf.Tag}]
	if !ok {
		return &OpaqueContent{Domain: cf.Domain, Tag: cf.Tag, Bytes: cf.Bytes}, nil
	}
	return fn(cf.Bytes)
}
