package client

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zentalk/envelope/pkg/content"
	"github.com/zentalk/envelope/pkg/frame"
)

func newTestClient(t *testing.T, name string, bus *LocalDelivery) *Client {
	t.Helper()

	identity, err := NewIdentity(name)
	require.NoError(t, err)

	c, err := NewClient(&Config{DisplayName: name, Padding: "fixed"}, identity, bus, zap.NewNop())
	require.NoError(t, err)
	return c
}

func introduce(t *testing.T, a, b *Client) {
	t.Helper()
	require.NoError(t, a.AddContact(b.identity.Contact()))
	require.NoError(t, b.AddContact(a.identity.Contact()))
}

func TestChatMessageExchange(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	introduce(t, alice, bob)

	type received struct {
		conversationID string
		msg            *content.ChatMessage
	}
	got := make(chan received, 1)
	bob.OnChatMessage = func(conversationID string, msg *content.ChatMessage) {
		got <- received{conversationID, msg}
	}

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	msgID, err := alice.SendChatMessage(ctx, conv.ID, "hello bob")
	require.NoError(t, err)

	select {
	case r := <-got:
		assert.Equal(t, conv.ID, r.conversationID)
		assert.Equal(t, "hello bob", r.msg.Text)
		assert.Equal(t, msgID, r.msg.MessageID)
	default:
		t.Fatal("bob received no message")
	}
}

func TestInviteJoinsConversation(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	introduce(t, alice, bob)

	invites := make(chan *frame.ConversationInvite, 1)
	bob.OnInvite = func(inv *frame.ConversationInvite) { invites <- inv }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	select {
	case inv := <-invites:
		assert.Equal(t, conv.ID, inv.ConversationID)
		assert.Contains(t, inv.Participants, alice.Address())
	default:
		t.Fatal("bob received no invite")
	}

	// Bob can reply on the joined conversation.
	replies := make(chan *content.ChatMessage, 1)
	alice.OnChatMessage = func(_ string, msg *content.ChatMessage) { replies <- msg }

	_, err = bob.SendChatMessage(ctx, conv.ID, "hi alice")
	require.NoError(t, err)

	select {
	case msg := <-replies:
		assert.Equal(t, "hi alice", msg.Text)
	default:
		t.Fatal("alice received no reply")
	}
}

func TestMessagesUnreadableByThirdParty(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	eve := newTestClient(t, "eve", bus)
	introduce(t, alice, bob)
	introduce(t, alice, eve)
	introduce(t, bob, eve)

	leaked := make(chan *content.ChatMessage, 1)
	eve.OnChatMessage = func(_ string, msg *content.ChatMessage) { leaked <- msg }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	require.NoError(t, eve.Start())
	defer alice.Close()
	defer bob.Close()
	defer eve.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	// Eve subscribes to the conversation topic but holds the wrong keys.
	_, err = bus.Subscribe(conv.Topic, eve.handlePayload(purposeAppFrame))
	require.NoError(t, err)

	_, err = alice.SendChatMessage(ctx, conv.ID, "for bob only")
	require.NoError(t, err)

	select {
	case <-leaked:
		t.Fatal("eve decrypted a message sealed to bob")
	default:
	}
}

func TestPublishContact(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)

	cards := make(chan *content.Contact, 1)
	bob.OnContact = func(c *content.Contact) { cards <- c }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	require.NoError(t, alice.PublishContact(context.Background()))

	select {
	case card := <-cards:
		assert.Equal(t, alice.Address(), card.Address)
		assert.Equal(t, "alice", card.DisplayName)
		assert.Len(t, card.IdentityKey, 64)
	default:
		t.Fatal("bob received no contact card")
	}
}

func TestApplicationContentRegistration(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	introduce(t, alice, bob)

	const (
		pollDomain uint32 = 0x0200
		pollTag    uint32 = 1
	)

	type poll struct{ question string }
	require.NoError(t, bob.Registry().Register(pollDomain, pollTag, func(b []byte) (any, error) {
		return &poll{question: string(b)}, nil
	}))

	resolved := make(chan any, 1)
	bob.OnContent = func(_ string, v any) { resolved <- v }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	// Alice has no decoder for the poll domain but can still send the raw
	// content frame.
	f := &frame.Frame{Content: &frame.ContentFrame{
		Domain: pollDomain,
		Tag:    pollTag,
		Bytes:  []byte("lunch?"),
	}}
	padded, err := alice.composeFrame(f, purposeAppFrame)
	require.NoError(t, err)

	alice.mu.RLock()
	bobPeer := alice.peers[bob.Address()]
	alice.mu.RUnlock()
	require.NoError(t, alice.sendSealed(ctx, conv.Topic, conv.ID, padded, bobPeer, conv.Algorithm))

	select {
	case v := <-resolved:
		p, ok := v.(*poll)
		require.True(t, ok, "expected registered decoder output, got %T", v)
		assert.Equal(t, "lunch?", p.question)
	default:
		t.Fatal("bob resolved no application content")
	}
}

func TestUnregisteredContentStaysOpaque(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	introduce(t, alice, bob)

	resolved := make(chan any, 1)
	bob.OnContent = func(_ string, v any) { resolved <- v }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, 0xDEADBEEF)

	f := &frame.Frame{Content: &frame.ContentFrame{Domain: 0x0300, Tag: 7, Bytes: raw}}
	padded, err := alice.composeFrame(f, purposeAppFrame)
	require.NoError(t, err)

	alice.mu.RLock()
	bobPeer := alice.peers[bob.Address()]
	alice.mu.RUnlock()
	require.NoError(t, alice.sendSealed(ctx, conv.Topic, conv.ID, padded, bobPeer, conv.Algorithm))

	select {
	case v := <-resolved:
		oc, ok := v.(*frame.OpaqueContent)
		require.True(t, ok, "expected opaque content, got %T", v)
		assert.Equal(t, uint32(0x0300), oc.Domain)
		assert.Equal(t, uint32(7), oc.Tag)
		assert.Equal(t, raw, oc.Bytes)
	default:
		t.Fatal("bob resolved no content")
	}
}

func TestForgedSignatureDropped(t *testing.T) {
	bus := NewLocalDelivery()
	defer bus.Close()

	alice := newTestClient(t, "alice", bus)
	bob := newTestClient(t, "bob", bus)
	mallory := newTestClient(t, "mallory", bus)
	introduce(t, alice, bob)
	// Bob does not know mallory; her signatures are outside his policy.
	require.NoError(t, mallory.AddContact(bob.identity.Contact()))

	got := make(chan *content.ChatMessage, 1)
	bob.OnChatMessage = func(_ string, msg *content.ChatMessage) { got <- msg }

	require.NoError(t, alice.Start())
	require.NoError(t, bob.Start())
	defer alice.Close()
	defer bob.Close()

	ctx := context.Background()

	conv, err := alice.CreateConversation(bob.Address())
	require.NoError(t, err)
	require.NoError(t, alice.Invite(ctx, conv.ID, bob.Address()))

	// Mallory seals a validly-signed message to bob, but bob never
	// declared her as a signer.
	msg := &content.ChatMessage{Text: "trust me", MessageID: "forged"}
	f := &frame.Frame{Content: &frame.ContentFrame{
		Domain: frame.DomainCore,
		Tag:    content.ContentTagChatMessage,
		Bytes:  msg.Encode(),
	}}
	padded, err := mallory.composeFrame(f, purposeAppFrame)
	require.NoError(t, err)

	mallory.mu.RLock()
	bobPeer := mallory.peers[bob.Address()]
	mallory.mu.RUnlock()
	require.NoError(t, mallory.sendSealed(ctx, conv.Topic, conv.ID, padded, bobPeer, conv.Algorithm))

	select {
	case <-got:
		t.Fatal("bob accepted a message from an undeclared signer")
	default:
	}
}

func TestConfigPaddingSchemes(t *testing.T) {
	tests := []struct {
		padding string
		wantErr bool
	}{
		{"none", false},
		{"fixed", false},
		{"random", false},
		{"", false},
		{"bogus", true},
	}

	for _, tt := range tests {
		cfg := &Config{Padding: tt.padding}
		_, err := cfg.PaddingScheme()
		if tt.wantErr {
			assert.Error(t, err, "padding %q", tt.padding)
		} else {
			assert.NoError(t, err, "padding %q", tt.padding)
		}
	}
}
