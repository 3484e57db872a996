package client

import (
	"github.com/mr-tron/base58"

	"github.com/zentalk/envelope/pkg/content"
	"github.com/zentalk/envelope/pkg/crypto"
)

// Topic prefixes. An inbox receives control traffic addressed to one
// identity; a private topic carries one conversation's envelopes.
const (
	inboxPrefix   = "/inbox/"
	privatePrefix = "/private/"

	// DirectoryTopic is where public contact cards are announced.
	DirectoryTopic = "/directory"
)

// Identity is one participant's key material: an Ed25519 signing pair for
// frame signatures and an X25519 pair for envelope key agreement. The
// address is derived from both public keys and identifies the inbox.
type Identity struct {
	DisplayName string
	Signing     *crypto.SigningKeyPair
	Box         *crypto.BoxKeyPair
	Address     string
}

// NewIdentity generates fresh key material for a participant
func NewIdentity(displayName string) (*Identity, error) {
	signing, err := crypto.GenerateSigningKeyPair()
	if err != nil {
		return nil, err
	}
	box, err := crypto.GenerateBoxKeyPair()
	if err != nil {
		return nil, err
	}

	return &Identity{
		DisplayName: displayName,
		Signing:     signing,
		Box:         box,
		Address:     DeriveAddress(signing.PublicKey, box.PublicKey),
	}, nil
}

// DeriveAddress computes the address bound to a signing and box public key:
// base58 of the SHA3-256 hash over both keys.
func DeriveAddress(signingKey, boxKey [32]byte) string {
	material := make([]byte, 0, 64)
	material = append(material, signingKey[:]...)
	material = append(material, boxKey[:]...)
	return base58.Encode(crypto.Hash(material))
}

// Contact builds the public contact card for this identity. The identity
// key field carries the signing key followed by the box key, so a receiver
// can both verify frames from and seal envelopes to the contact.
func (id *Identity) Contact() *content.Contact {
	key := make([]byte, 0, 64)
	key = append(key, id.Signing.PublicKey[:]...)
	key = append(key, id.Box.PublicKey[:]...)

	return &content.Contact{
		Address:     id.Address,
		DisplayName: id.DisplayName,
		IdentityKey: key,
	}
}

// InboxTopic returns the inbox topic for an address
func InboxTopic(address string) string {
	return inboxPrefix + address
}

// ConversationTopic returns the private topic for a conversation id
func ConversationTopic(conversationID string) string {
	return privatePrefix + conversationID
}
