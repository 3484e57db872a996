package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zentalk/envelope/pkg/content"
	"github.com/zentalk/envelope/pkg/crypto"
	"github.com/zentalk/envelope/pkg/envelope"
	"github.com/zentalk/envelope/pkg/frame"
	"github.com/zentalk/envelope/pkg/signed"
	"github.com/zentalk/envelope/pkg/wire"
)

// Signing purposes. Conversation traffic and inbox control traffic sign
// under different purposes, so a frame valid in one can never replay as
// valid in the other.
const (
	purposeAppFrame     = "app-frame"
	purposeControlFrame = "control-frame"
)

var (
	ErrUnknownPeer         = errors.New("peer not known")
	ErrUnknownConversation = errors.New("conversation not known")
	ErrBadIdentityKey      = errors.New("identity key must be 64 bytes")
)

// Peer is a known remote participant: their keys and a sealing keyring
// built over their box key.
type Peer struct {
	Address     string
	DisplayName string
	SigningKey  [32]byte
	BoxKey      [32]byte

	sealing *envelope.Keyring
}

// Conversation is an active private channel: its topic, the encryption
// algorithm its envelopes use and the peers it spans.
type Conversation struct {
	ID        string
	Topic     string
	Algorithm envelope.Algorithm
	Peers     []string

	lamport uint64
}

// Client composes the full send pipeline (encode, sign, pad, seal,
// envelope, tag) and runs its inverse on everything its subscriptions
// deliver.
//
// Callbacks must be assigned before Start and never reassigned after.
type Client struct {
	cfg      *Config
	identity *Identity
	delivery DeliveryService
	log      *zap.Logger

	padding crypto.PaddingScheme
	scheme  signed.Scheme
	opening *envelope.Keyring

	registry *frame.Registry
	codec    *frame.Codec
	router   *wire.Router

	mu            sync.RWMutex
	peers         map[string]*Peer
	conversations map[string]*Conversation
	unsubs        []func()

	// OnChatMessage fires for each verified chat message in a conversation.
	OnChatMessage func(conversationID string, msg *content.ChatMessage)

	// OnContact fires for contact cards, public or sealed.
	OnContact func(c *content.Contact)

	// OnInvite fires after the client has joined the invited conversation.
	OnInvite func(inv *frame.ConversationInvite)

	// OnContent fires for application-registered content types and for
	// opaque content with no registered decoder.
	OnContent func(conversationID string, v any)
}

// NewClient builds a client over the given delivery service
func NewClient(cfg *Config, identity *Identity, delivery DeliveryService, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	padding, err := cfg.PaddingScheme()
	if err != nil {
		return nil, err
	}

	opts := envelope.Options{AllowInsecure: cfg.AllowInsecure}
	opening, err := envelope.NewKeyring(opts,
		crypto.NewECIES(nil, &identity.Box.PrivateKey),
		crypto.Plaintext{},
		crypto.Reversed{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "build keyring")
	}

	registry := frame.NewRegistry()

	c := &Client{
		cfg:           cfg,
		identity:      identity,
		delivery:      delivery,
		log:           log,
		padding:       padding,
		scheme:        crypto.Ed25519{},
		opening:       opening,
		registry:      registry,
		codec:         frame.NewCodec(registry),
		router:        wire.NewRouter(),
		peers:         make(map[string]*Peer),
		conversations: make(map[string]*Conversation),
	}

	if err := c.router.Register(wire.ProtocolV1, wire.PayloadEnvelope, func(payload []byte) (any, error) {
		return envelope.DecodeEnvelope(payload)
	}); err != nil {
		return nil, err
	}
	if err := c.router.Register(wire.ProtocolV1, wire.PayloadPublicFrame, func(payload []byte) (any, error) {
		p := &frame.PublicFrame{}
		if err := p.Decode(payload); err != nil {
			return nil, err
		}
		return p, nil
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// Registry exposes the content registry so applications can register their
// own (domain, tag) decoders. Registration must finish before Start.
func (c *Client) Registry() *frame.Registry {
	return c.registry
}

// Address returns the client's own address
func (c *Client) Address() string {
	return c.identity.Address
}

// Start subscribes the client to its inbox and the contact directory
func (c *Client) Start() error {
	unsubInbox, err := c.delivery.Subscribe(InboxTopic(c.identity.Address), c.handlePayload(purposeControlFrame))
	if err != nil {
		return errors.Wrap(err, "subscribe inbox")
	}
	unsubDir, err := c.delivery.Subscribe(DirectoryTopic, c.handlePayload(purposeControlFrame))
	if err != nil {
		unsubInbox()
		return errors.Wrap(err, "subscribe directory")
	}

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubInbox, unsubDir)
	c.mu.Unlock()

	c.log.Info("client started",
		zap.String("address", c.identity.Address),
		zap.String("display_name", c.identity.DisplayName))
	return nil
}

// Close drops all subscriptions
func (c *Client) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	c.log.Info("client stopped", zap.String("address", c.identity.Address))
}

// AddPeer records a remote participant's keys. The identity key carries
// the 32-byte signing key followed by the 32-byte box key, as published in
// contact cards.
func (c *Client) AddPeer(address, displayName string, identityKey []byte) error {
	if len(identityKey) != 64 {
		return errors.Wrapf(ErrBadIdentityKey, "got %d", len(identityKey))
	}

	p := &Peer{Address: address, DisplayName: displayName}
	copy(p.SigningKey[:], identityKey[:32])
	copy(p.BoxKey[:], identityKey[32:])

	sealing, err := envelope.NewKeyring(envelope.Options{AllowInsecure: c.cfg.AllowInsecure},
		crypto.NewECIES(&p.BoxKey, nil),
		crypto.Plaintext{},
		crypto.Reversed{},
	)
	if err != nil {
		return errors.Wrap(err, "build peer keyring")
	}
	p.sealing = sealing

	c.mu.Lock()
	c.peers[address] = p
	c.mu.Unlock()

	c.log.Debug("peer added", zap.String("peer", address))
	return nil
}

// AddContact records a peer from a contact card
func (c *Client) AddContact(card *content.Contact) error {
	return c.AddPeer(card.Address, card.DisplayName, card.IdentityKey)
}

// CreateConversation opens a new conversation with the given peers and
// subscribes to its topic. Peers must already be known.
func (c *Client) CreateConversation(peers ...string) (*Conversation, error) {
	c.mu.RLock()
	for _, addr := range peers {
		if _, ok := c.peers[addr]; !ok {
			c.mu.RUnlock()
			return nil, errors.Wrap(ErrUnknownPeer, addr)
		}
	}
	c.mu.RUnlock()

	conv := &Conversation{
		ID:        uuid.NewString(),
		Algorithm: envelope.AlgorithmEcies,
		Peers:     append([]string(nil), peers...),
	}
	conv.Topic = ConversationTopic(conv.ID)

	if err := c.subscribeConversation(conv); err != nil {
		return nil, err
	}

	c.log.Info("conversation created",
		zap.String("conversation", conv.ID),
		zap.Int("peers", len(peers)))
	return conv, nil
}

// Invite asks a known peer to join a conversation. The invite travels
// sealed through the peer's inbox.
func (c *Client) Invite(ctx context.Context, conversationID, peerAddress string) error {
	c.mu.RLock()
	conv, ok := c.conversations[conversationID]
	if !ok {
		c.mu.RUnlock()
		return errors.Wrap(ErrUnknownConversation, conversationID)
	}
	peer, ok := c.peers[peerAddress]
	if !ok {
		c.mu.RUnlock()
		return errors.Wrap(ErrUnknownPeer, peerAddress)
	}
	participants := append([]string{c.identity.Address}, conv.Peers...)
	c.mu.RUnlock()

	f := &frame.Frame{
		Content: &frame.ConversationInvite{
			ConversationID: conversationID,
			Participants:   participants,
		},
	}

	padded, err := c.composeFrame(f, purposeControlFrame)
	if err != nil {
		return err
	}
	return c.sendSealed(ctx, InboxTopic(peerAddress), conversationID, padded, peer, conv.Algorithm)
}

// SendChatMessage sends a chat message into a conversation, sealed once
// per peer. It returns the message id.
func (c *Client) SendChatMessage(ctx context.Context, conversationID, text string) (string, error) {
	c.mu.Lock()
	conv, ok := c.conversations[conversationID]
	if !ok {
		c.mu.Unlock()
		return "", errors.Wrap(ErrUnknownConversation, conversationID)
	}
	conv.lamport++
	lamport := conv.lamport

	recipients := make([]*Peer, 0, len(conv.Peers))
	for _, addr := range conv.Peers {
		if p, ok := c.peers[addr]; ok {
			recipients = append(recipients, p)
		}
	}
	c.mu.Unlock()

	msg := &content.ChatMessage{
		Text:      text,
		MessageID: uuid.NewString(),
	}

	f := &frame.Frame{
		Reliability: &frame.ReliabilityInfo{
			MessageID: msg.MessageID,
			ChannelID: conversationID,
			Lamport:   lamport,
		},
		Content: &frame.ContentFrame{
			Domain: frame.DomainCore,
			Tag:    content.ContentTagChatMessage,
			Bytes:  msg.Encode(),
		},
	}

	padded, err := c.composeFrame(f, purposeAppFrame)
	if err != nil {
		return "", err
	}

	for _, peer := range recipients {
		if err := c.sendSealed(ctx, conv.Topic, conversationID, padded, peer, conv.Algorithm); err != nil {
			return "", errors.Wrapf(err, "send to %s", peer.Address)
		}
	}
	return msg.MessageID, nil
}

// PublishContact announces the client's own contact card on the directory
// topic, unencrypted.
func (c *Client) PublishContact(ctx context.Context) error {
	p := &frame.PublicFrame{Content: &frame.PublicContact{Contact: c.identity.Contact()}}
	encoded, err := p.Encode()
	if err != nil {
		return err
	}

	tp, err := wire.NewTaggedPayload(wire.ProtocolV1, wire.PayloadPublicFrame, encoded)
	if err != nil {
		return err
	}
	return c.delivery.Send(ctx, DirectoryTopic, tp.Encode())
}

// composeFrame encodes, signs and pads a frame into envelope-ready bytes
func (c *Client) composeFrame(f *frame.Frame, purpose string) ([]byte, error) {
	frameBytes, err := c.codec.Encode(f)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}

	sf, err := signed.Compose(frameBytes, c.signContext(purpose), c.scheme, c.identity.Signing.SignedKey())
	if err != nil {
		return nil, errors.Wrap(err, "sign frame")
	}

	padded, err := crypto.Pad(sf.Encode(), c.padding)
	if err != nil {
		return nil, errors.Wrap(err, "pad frame")
	}
	return padded, nil
}

// sendSealed seals padded bytes to one peer and publishes the envelope
func (c *Client) sendSealed(ctx context.Context, topic, conversationID string, padded []byte, peer *Peer, algo envelope.Algorithm) error {
	enc, err := peer.sealing.Seal(padded, algo)
	if err != nil {
		return errors.Wrap(err, "seal envelope")
	}

	env := &envelope.Envelope{Encrypted: enc, ConversationID: conversationID}
	encoded, err := env.Encode()
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}

	tp, err := wire.NewTaggedPayload(wire.ProtocolV1, wire.PayloadEnvelope, encoded)
	if err != nil {
		return err
	}
	return c.delivery.Send(ctx, topic, tp.Encode())
}

func (c *Client) signContext(purpose string) signed.Context {
	return signed.Context{Protocol: wire.ProtocolV1, Purpose: purpose}
}

// verifyPolicy accepts one valid signature from any known peer or from the
// client itself.
func (c *Client) verifyPolicy() signed.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	signers := make([][signed.PublicKeySize]byte, 0, len(c.peers)+1)
	signers = append(signers, c.identity.Signing.PublicKey)
	for _, p := range c.peers {
		signers = append(signers, p.SigningKey)
	}
	return signed.Policy{Threshold: 1, Signers: signers}
}

func (c *Client) subscribeConversation(conv *Conversation) error {
	unsub, err := c.delivery.Subscribe(conv.Topic, c.handlePayload(purposeAppFrame))
	if err != nil {
		return errors.Wrap(err, "subscribe conversation")
	}

	c.mu.Lock()
	c.conversations[conv.ID] = conv
	c.unsubs = append(c.unsubs, unsub)
	c.mu.Unlock()
	return nil
}

// handlePayload builds the receive path for one topic: route, open,
// verify, decode, dispatch to callbacks.
func (c *Client) handlePayload(purpose string) Handler {
	return func(topic string, payload []byte) {
		unit, err := c.router.Decode(payload)
		if err != nil {
			var unknown *wire.UnknownTagError
			switch {
			case errors.As(err, &unknown):
				// Raw bytes survive in the error; a relay would
				// store-and-forward them here.
				c.log.Warn("unknown payload tag retained",
					zap.Uint32("protocol", uint32(unknown.Protocol)),
					zap.Uint32("tag", uint32(unknown.Tag)),
					zap.Int("bytes", len(unknown.Payload)))
			case errors.Is(err, wire.ErrUnsupportedProtocol):
				c.log.Warn("unsupported protocol", zap.String("topic", topic), zap.Error(err))
			default:
				c.log.Warn("payload rejected", zap.String("topic", topic), zap.Error(err))
			}
			return
		}

		switch v := unit.(type) {
		case *envelope.Envelope:
			c.handleEnvelope(v, purpose)
		case *frame.PublicFrame:
			c.handlePublicFrame(v)
		default:
			c.log.Warn("unhandled unit", zap.String("topic", topic))
		}
	}
}

func (c *Client) handleEnvelope(env *envelope.Envelope, purpose string) {
	opened, err := c.opening.Open(env.Encrypted)
	if err != nil {
		switch {
		case errors.Is(err, envelope.ErrAuthentication):
			// Sealed to another participant on a shared topic.
			c.log.Debug("envelope not addressed to us", zap.String("conversation", env.ConversationID))
		default:
			c.log.Warn("envelope rejected",
				zap.String("conversation", env.ConversationID),
				zap.Error(err))
		}
		return
	}

	unpadded, err := crypto.Unpad(opened)
	if err != nil {
		c.log.Warn("bad padding", zap.String("conversation", env.ConversationID), zap.Error(err))
		return
	}

	payload, err := signed.Decompose(unpadded, c.signContext(purpose), c.scheme, c.verifyPolicy())
	if err != nil {
		c.log.Warn("signature verification failed",
			zap.String("conversation", env.ConversationID),
			zap.Error(err))
		return
	}

	f, err := c.codec.Decode(payload)
	if err != nil {
		c.log.Warn("frame decode failed", zap.String("conversation", env.ConversationID), zap.Error(err))
		return
	}

	switch v := f.Content.(type) {
	case *frame.ContentFrame:
		c.handleContentFrame(env.ConversationID, v)
	case *frame.ConversationInvite:
		c.handleInvite(v)
	}
}

func (c *Client) handleContentFrame(conversationID string, cf *frame.ContentFrame) {
	resolved, err := c.codec.DecodeContent(cf)
	if err != nil {
		c.log.Warn("content decode failed",
			zap.Uint32("domain", cf.Domain),
			zap.Uint32("tag", cf.Tag),
			zap.Error(err))
		return
	}

	switch v := resolved.(type) {
	case *content.ChatMessage:
		if c.OnChatMessage != nil {
			c.OnChatMessage(conversationID, v)
		}
	case *content.Contact:
		if c.OnContact != nil {
			c.OnContact(v)
		}
	case *frame.OpaqueContent:
		c.log.Info("content retained undecoded",
			zap.Uint32("domain", v.Domain),
			zap.Uint32("tag", v.Tag),
			zap.Int("bytes", len(v.Bytes)))
		if c.OnContent != nil {
			c.OnContent(conversationID, v)
		}
	default:
		if c.OnContent != nil {
			c.OnContent(conversationID, v)
		}
	}
}

func (c *Client) handleInvite(inv *frame.ConversationInvite) {
	c.mu.RLock()
	_, known := c.conversations[inv.ConversationID]
	c.mu.RUnlock()

	if !known {
		conv := &Conversation{
			ID:        inv.ConversationID,
			Topic:     ConversationTopic(inv.ConversationID),
			Algorithm: envelope.AlgorithmEcies,
		}
		for _, addr := range inv.Participants {
			if addr == c.identity.Address {
				continue
			}
			conv.Peers = append(conv.Peers, addr)
		}

		if err := c.subscribeConversation(conv); err != nil {
			c.log.Warn("failed to join conversation",
				zap.String("conversation", inv.ConversationID),
				zap.Error(err))
			return
		}
		c.log.Info("joined conversation", zap.String("conversation", inv.ConversationID))
	}

	if c.OnInvite != nil {
		c.OnInvite(inv)
	}
}

func (c *Client) handlePublicFrame(p *frame.PublicFrame) {
	card, ok := p.Content.(*frame.PublicContact)
	if !ok {
		return
	}
	if card.Contact.Address == c.identity.Address {
		return
	}
	if c.OnContact != nil {
		c.OnContact(card.Contact)
	}
}
