package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireGossip(t *testing.T) {
	t.Run("encode decode", func(t *testing.T) {
		m := WireGossip{
			ID:      "x",
			Origin:  "sys/gossip-a",
			Payload: []byte("payload"),
			AckTo:   "sys/gossip-a/ask",
		}

		b, err := EncodeWireGossip(m)
		require.NoError(t, err)

		decoded, err := DecodeWireGossip(b)
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeWireGossip([]byte{uint8(wireMessageTypeGossip)})
		assert.Error(t, err)
	})

	t.Run("unexpected type", func(t *testing.T) {
		_, err := DecodeWireGossip(EncodeWireAck())
		assert.Error(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		b, err := EncodeWireGossip(WireGossip{ID: "x"})
		require.NoError(t, err)
		b[1] = 0xff

		_, err = DecodeWireGossip(b)
		assert.Error(t, err)
	})
}

func TestWireAck(t *testing.T) {
	assert.NoError(t, DecodeWireAck(EncodeWireAck()))

	b, err := EncodeWireGossip(WireGossip{ID: "x"})
	require.NoError(t, err)
	assert.Error(t, DecodeWireAck(b))
}
