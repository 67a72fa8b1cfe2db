package webrtc

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICEServers(t *testing.T) {
	servers := iceServers([]string{"stun:a.example:3478", "turn:b.example:3478"})
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:a.example:3478"}, servers[0].URLs)
	assert.Empty(t, iceServers(nil))
}

func TestSessionICELite(t *testing.T) {
	s, err := NewSession(Config{ICEIPs: []string{"203.0.113.7"}}, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddH264Track())
	assert.NoError(t, s.Close())
}

func TestSessionWriteRTP(t *testing.T) {
	s, err := NewSession(Config{}, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.WriteRTP([]byte{0x80}), ErrNoTrack)

	require.NoError(t, s.AddH264Track())
	assert.Error(t, s.WriteRTP([]byte{0x80}))

	pkt := rtp.Packet{Header: rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: 1}, Payload: []byte{0x65}}
	buf, err := pkt.Marshal()
	require.NoError(t, err)
	assert.NoError(t, s.WriteRTP(buf))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
