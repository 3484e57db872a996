// Package wire implements the top-level tagged payload envelope.
//
// Every network-visible unit is a TaggedPayload: a protocol discriminant,
// a payload-kind tag, and opaque payload bytes that are only decoded after
// dispatch. The pairing of protocol and tag is what gives the wire format
// versioned, forward-compatible evolution: a decoder that does not know a
// tag returns the raw bytes unharmed instead of failing, so a caller can
// store-and-forward units it cannot interpret.
//
// # Wire Format
//
// A TaggedPayload is encoded as 12 bytes of header plus the payload:
//   - Protocol (4 bytes): protocol/version discriminant
//   - Tag (4 bytes): payload-kind discriminant
//   - Length (4 bytes): payload length
//   - Payload (variable): opaque bytes
//
// All integers are big-endian. Value 0 is reserved in both the protocol and
// tag spaces and is never a valid payload.
//
// # Dispatch
//
// The Router maps (protocol, tag) pairs to decoder functions. The table is
// populated once during initialization; registration must be complete before
// the first Dispatch call. A Router whose table is no longer mutated is safe
// for concurrent use from multiple goroutines without locking.
package wire
