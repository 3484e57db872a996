package wire

import (
	"bytes"
	"testing"
)

func TestTaggedPayloadEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload *TaggedPayload
	}{
		{
			name: "envelope payload",
			payload: &TaggedPayload{
				Protocol: ProtocolV1,
				Tag:      PayloadEnvelope,
				Payload:  []byte("encrypted envelope bytes"),
			},
		},
		{
			name: "public frame payload",
			payload: &TaggedPayload{
				Protocol: ProtocolV1,
				Tag:      PayloadPublicFrame,
				Payload:  bytes.Repeat([]byte{0xAB}, 4096),
			},
		},
		{
			name: "empty payload",
			payload: &TaggedPayload{
				Protocol: ProtocolV1,
				Tag:      PayloadEnvelope,
				Payload:  []byte{},
			},
		},
		{
			name: "future tag",
			payload: &TaggedPayload{
				Protocol: ProtocolV1,
				Tag:      PayloadTag(0x7FFF),
				Payload:  []byte{0x01, 0x02, 0x03},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.payload.Encode()

			if len(encoded) != PayloadHeaderSize+len(tt.payload.Payload) {
				t.Fatalf("Encode() length = %d, want %d", len(encoded), PayloadHeaderSize+len(tt.payload.Payload))
			}

			decoded := &TaggedPayload{}
			if err := decoded.Decode(encoded); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded.Protocol != tt.payload.Protocol {
				t.Errorf("Protocol = %d, want %d", decoded.Protocol, tt.payload.Protocol)
			}
			if decoded.Tag != tt.payload.Tag {
				t.Errorf("Tag = %d, want %d", decoded.Tag, tt.payload.Tag)
			}
			if !bytes.Equal(decoded.Payload, tt.payload.Payload) {
				t.Error("Payload mismatch")
			}
		})
	}
}

func TestNewTaggedPayloadRangeChecks(t *testing.T) {
	if _, err := NewTaggedPayload(ProtocolUnknown, PayloadEnvelope, nil); err != ErrInvalidProtocolTag {
		t.Errorf("zero protocol: error = %v, want %v", err, ErrInvalidProtocolTag)
	}

	if _, err := NewTaggedPayload(ProtocolV1, PayloadUnknown, nil); err != ErrInvalidPayloadTag {
		t.Errorf("zero tag: error = %v, want %v", err, ErrInvalidPayloadTag)
	}

	if _, err := NewTaggedPayload(ProtocolV1, PayloadEnvelope, []byte("ok")); err != nil {
		t.Errorf("valid payload: error = %v", err)
	}
}

func TestTaggedPayloadDecodeErrors(t *testing.T) {
	valid := (&TaggedPayload{Protocol: ProtocolV1, Tag: PayloadEnvelope, Payload: []byte("abc")}).Encode()

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{
			name: "too short",
			buf:  valid[:8],
			want: ErrPayloadTooShort,
		},
		{
			name: "zero protocol",
			buf:  append([]byte{0, 0, 0, 0}, valid[4:]...),
			want: ErrInvalidProtocolTag,
		},
		{
			name: "zero tag",
			buf:  append(append([]byte{}, valid[:4]...), append([]byte{0, 0, 0, 0}, valid[8:]...)...),
			want: ErrInvalidPayloadTag,
		},
		{
			name: "truncated payload",
			buf:  valid[:len(valid)-1],
			want: ErrPayloadLength,
		},
		{
			name: "trailing garbage",
			buf:  append(append([]byte{}, valid...), 0xFF),
			want: ErrPayloadLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &TaggedPayload{}
			if err := p.Decode(tt.buf); err != tt.want {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTaggedPayloadDecodeCopiesBytes(t *testing.T) {
	buf := (&TaggedPayload{Protocol: ProtocolV1, Tag: PayloadEnvelope, Payload: []byte{1, 2, 3}}).Encode()

	p := &TaggedPayload{}
	if err := p.Decode(buf); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf[PayloadHeaderSize] = 0xFF
	if p.Payload[0] != 1 {
		t.Error("decoded payload aliases the input buffer")
	}
}
