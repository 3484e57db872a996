// Package frame implements the logical message frame codec.
//
// A Frame pairs optional reliability metadata with exactly one content
// variant. The content space is a tagged union: a ContentFrame carrying
// application content keyed by (domain, tag), or a ConversationInvite used
// to establish new conversations. A frame with no content variant is
// malformed; more than one variant is unrepresentable by construction.
//
// # Frame Format
//
// Frames use binary encoding with big-endian byte order:
//   - Reliability flag (1 byte): 1 if reliability info follows
//   - Reliability (optional): 4-byte length + encoded ReliabilityInfo
//   - Discriminant (1 byte): content variant
//   - Variant payload (variable)
//
// # Content Dispatch
//
// ContentFrame carries a second-level (domain, tag) dispatch key. Domains
// below DomainApplicationMin are reserved for core content types; the
// Registry rejects application registrations inside the reserved range.
// Content whose (domain, tag) pair is not registered decodes to an
// OpaqueContent wrapper that preserves the raw bytes, it is never dropped.
//
// The Registry is populated during an explicit initialization phase and must
// not be mutated once decoding begins. A snapshot that is no longer mutated
// is safe for concurrent use.
package frame
