// Package envelope implements the algorithm-agile encryption envelope.
//
// EncryptedBytes is a tagged union over the supported encryption schemes.
// Sealing is caller-directed: the caller picks the algorithm and the keyring
// looks up a matching cipher. Opening is variant-directed: the wire
// discriminant selects the cipher, and a keyring that has no cipher for a
// received variant fails closed instead of guessing.
//
// The Plaintext and Reversed variants exist for tests and migration
// scaffolding only. A keyring rejects them by default; they are usable only
// when the keyring was built with AllowInsecure set.
//
// An Envelope binds EncryptedBytes to a conversation identifier, which
// serves as the domain-separation context for the ciphertext.
//
// The concrete cryptographic primitives are not implemented here: the
// envelope calls into Cipher capabilities supplied by the caller (see
// pkg/crypto for the stock implementations).
package envelope
