package gossip

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"
)

// The wire protocol carries gossip between shells whose runtimes cross
// process boundaries. Payloads are opaque bytes; the identifier string
// partitions streams exactly as it does in process.
//
// Messages are framed as a type byte and a version byte followed by a
// msgpack body.

type wireMessageType uint8

const (
	wireMessageTypeGossip wireMessageType = iota + 1
	wireMessageTypeAck
)

func (t wireMessageType) String() string {
	switch t {
	case wireMessageTypeGossip:
		return "gossip"
	case wireMessageTypeAck:
		return "ack"
	default:
		return "unknown"
	}
}

const wireVersion uint8 = 0

// WireGossip is the encoded form of a gossip payload.
type WireGossip struct {
	// ID is the string form of the stream identifier.
	ID string `codec:"id"`

	// Origin is the sending shell's address.
	Origin string `codec:"origin"`

	// Payload is the encoded envelope. Opaque to the engine.
	Payload []byte `codec:"payload"`

	// AckTo is the address to acknowledge delivery to.
	AckTo string `codec:"ack_to"`
}

func EncodeWireGossip(m WireGossip) ([]byte, error) {
	var buf bytes.Buffer
	_ = buf.WriteByte(uint8(wireMessageTypeGossip))
	_ = buf.WriteByte(wireVersion)

	var handle codec.MsgpackHandle
	if err := codec.NewEncoder(&buf, &handle).Encode(&m); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeWireGossip(b []byte) (WireGossip, error) {
	if err := checkWireHeader(b, wireMessageTypeGossip); err != nil {
		return WireGossip{}, err
	}

	var handle codec.MsgpackHandle
	var m WireGossip
	if err := codec.NewDecoderBytes(b[2:], &handle).Decode(&m); err != nil {
		return WireGossip{}, fmt.Errorf("decode: %w", err)
	}
	return m, nil
}

// EncodeWireAck encodes the empty ACK reply.
func EncodeWireAck() []byte {
	return []byte{uint8(wireMessageTypeAck), wireVersion}
}

func DecodeWireAck(b []byte) error {
	return checkWireHeader(b, wireMessageTypeAck)
}

func checkWireHeader(b []byte, expected wireMessageType) error {
	if len(b) < 2 {
		return fmt.Errorf("message truncated: %d bytes", len(b))
	}
	if t := wireMessageType(b[0]); t != expected {
		return fmt.Errorf("unexpected message type: %s", t)
	}
	if b[1] != wireVersion {
		return fmt.Errorf("unsupported version: %d", b[1])
	}
	return nil
}
