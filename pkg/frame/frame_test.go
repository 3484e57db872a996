package frame

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/zentalk/envelope/pkg/content"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	return NewCodec(NewRegistry())
}

func TestFrameEncodeDecode(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name  string
		frame *Frame
	}{
		{
			name: "content frame without reliability",
			frame: &Frame{
				Content: &ContentFrame{
					Domain: DomainCore,
					Tag:    content.ContentTagChatMessage,
					Bytes:  (&content.ChatMessage{Text: "hi", MessageID: "m1"}).Encode(),
				},
			},
		},
		{
			name: "content frame with reliability",
			frame: &Frame{
				Reliability: &ReliabilityInfo{
					MessageID:     "abc123",
					ChannelID:     "/private/x",
					Lamport:       42,
					CausalHistory: [][]byte{bytes.Repeat([]byte{0x01}, 32)},
				},
				Content: &ContentFrame{
					Domain: 0x0200,
					Tag:    7,
					Bytes:  []byte{0xCA, 0xFE},
				},
			},
		},
		{
			name: "conversation invite",
			frame: &Frame{
				Content: &ConversationInvite{
					ConversationID: "/private/alice|bob",
					Participants:   []string{"alice", "bob"},
				},
			},
		},
		{
			name: "invite with no participants",
			frame: &Frame{
				Content: &ConversationInvite{ConversationID: "/private/empty"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := codec.Encode(tt.frame)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if !reflect.DeepEqual(decoded.Content, tt.frame.Content) {
				t.Errorf("Content = %+v, want %+v", decoded.Content, tt.frame.Content)
			}

			if (decoded.Reliability == nil) != (tt.frame.Reliability == nil) {
				t.Fatalf("Reliability presence mismatch")
			}
			if tt.frame.Reliability != nil && !reflect.DeepEqual(decoded.Reliability, tt.frame.Reliability) {
				t.Errorf("Reliability = %+v, want %+v", decoded.Reliability, tt.frame.Reliability)
			}
		})
	}
}

func TestFrameEncodeRejectsMissingContent(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Encode(&Frame{}); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Encode() error = %v, want %v", err, ErrMalformedFrame)
	}
}

func TestFrameDecodeRejectsMissingVariant(t *testing.T) {
	codec := newTestCodec(t)

	// No reliability, zero discriminant.
	if _, err := codec.Decode([]byte{0, 0}); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Decode() error = %v, want %v", err, ErrMalformedFrame)
	}
}

func TestFrameDecodeRejectsUnknownDiscriminant(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Decode([]byte{0, 0x7F, 1, 2, 3}); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Decode() error = %v, want %v", err, ErrMalformedFrame)
	}
}

func TestFrameDecodeTruncated(t *testing.T) {
	codec := newTestCodec(t)

	frame := &Frame{
		Reliability: &ReliabilityInfo{MessageID: "m", ChannelID: "c", Lamport: 1},
		Content:     &ContentFrame{Domain: 0x0100, Tag: 1, Bytes: []byte("payload")},
	}

	encoded, err := codec.Encode(frame)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for _, cut := range []int{0, 1, 3, 6, len(encoded) / 2, len(encoded) - 1} {
		if _, err := codec.Decode(encoded[:cut]); err == nil {
			t.Errorf("Decode() on %d-byte prefix succeeded, want error", cut)
		}
	}
}

func TestReliabilityInfoPreservesUnknownFields(t *testing.T) {
	info := &ReliabilityInfo{
		MessageID: "m1",
		ChannelID: "ch",
		Lamport:   9,
	}

	// Simulate a newer version appending fields this version does not know.
	future := append(info.Encode(), 0xBE, 0xEF, 0x00, 0x42)

	decoded := &ReliabilityInfo{}
	if err := decoded.Decode(future); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !bytes.Equal(decoded.Extra, []byte{0xBE, 0xEF, 0x00, 0x42}) {
		t.Fatalf("Extra = %x, want be ef 00 42", decoded.Extra)
	}

	if !bytes.Equal(decoded.Encode(), future) {
		t.Error("re-encode did not round-trip unknown fields")
	}
}

func TestPublicFrameEncodeDecode(t *testing.T) {
	pub := &PublicFrame{
		Content: &PublicContact{
			Contact: &content.Contact{
				Address:     "addr1",
				DisplayName: "bob",
				IdentityKey: bytes.Repeat([]byte{0x22}, 32),
			},
		},
	}

	encoded, err := pub.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded := &PublicFrame{}
	if err := decoded.Decode(encoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !reflect.DeepEqual(decoded, pub) {
		t.Errorf("decoded = %+v, want %+v", decoded, pub)
	}
}

func TestPublicFrameRejectsEmptyUnion(t *testing.T) {
	pub := &PublicFrame{}
	if _, err := pub.Encode(); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Encode() error = %v, want %v", err, ErrMalformedFrame)
	}

	decoded := &PublicFrame{}
	if err := decoded.Decode([]byte{0}); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Decode() error = %v, want %v", err, ErrMalformedFrame)
	}
}
