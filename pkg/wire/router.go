package wire

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrDuplicateRoute      = errors.New("route already registered")
)

// UnknownTagError reports a tag that is not registered under a known
// protocol. It carries the raw payload bytes unharmed so the caller can
// store-and-forward the unit without understanding its content.
type UnknownTagError struct {
	Protocol ProtocolTag
	Tag      PayloadTag
	Payload  []byte
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown payload tag %d under protocol %d", e.Tag, e.Protocol)
}

// DecodeFunc decodes the payload bytes of a dispatched TaggedPayload into a
// typed unit.
type DecodeFunc func(payload []byte) (any, error)

type routeKey struct {
	protocol ProtocolTag
	tag      PayloadTag
}

// Router dispatches decoded TaggedPayloads to per-(protocol, tag) decoders.
//
// The dispatch table is built once during initialization. Registration must
// be complete before the first call to Dispatch; mutating the table while
// decodes are in flight is a precondition violation. A fully built Router
// is safe for concurrent use.
type Router struct {
	routes    map[routeKey]DecodeFunc
	protocols map[ProtocolTag]bool
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		routes:    make(map[routeKey]DecodeFunc),
		protocols: make(map[ProtocolTag]bool),
	}
}

// Register adds a decoder for a (protocol, tag) pair. Registering the same
// pair twice is a configuration error.
func (r *Router) Register(protocol ProtocolTag, tag PayloadTag, fn DecodeFunc) error {
	if protocol == ProtocolUnknown {
		return ErrInvalidProtocolTag
	}
	if tag == PayloadUnknown {
		return ErrInvalidPayloadTag
	}
	if fn == nil {
		return errors.New("nil decode func")
	}

	key := routeKey{protocol: protocol, tag: tag}
	if _, exists := r.routes[key]; exists {
		return fmt.Errorf("%w: protocol=%d tag=%d", ErrDuplicateRoute, protocol, tag)
	}

	r.routes[key] = fn
	r.protocols[protocol] = true
	return nil
}

// Dispatch resolves the payload's (protocol, tag) pair and invokes the
// registered decoder on the payload bytes.
//
// An unknown protocol is a hard stop: no best-effort parsing happens across
// protocol versions. An unknown tag under a known protocol returns an
// *UnknownTagError carrying the original bytes unmodified.
func (r *Router) Dispatch(p *TaggedPayload) (any, error) {
	if !r.protocols[p.Protocol] {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedProtocol, p.Protocol)
	}

	fn, ok := r.routes[routeKey{protocol: p.Protocol, tag: p.Tag}]
	if !ok {
		return nil, &UnknownTagError{
			Protocol: p.Protocol,
			Tag:      p.Tag,
			Payload:  p.Payload,
		}
	}

	return fn(p.Payload)
}

// Decode decodes raw bytes into a TaggedPayload and dispatches it in one step.
func (r *Router) Decode(buf []byte) (any, error) {
	p, err := DecodePayload(buf)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(p)
}
