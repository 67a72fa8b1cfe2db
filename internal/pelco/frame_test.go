package pelco

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		f := Frame{
			Address:  byte(rng.Intn(256)),
			Command1: byte(rng.Intn(256)),
			Command2: byte(rng.Intn(256)),
			Data1:    byte(rng.Intn(256)),
			Data2:    byte(rng.Intn(256)),
		}
		b := f.Encode()
		require.Len(t, b, CommandLength)
		sum := (int(f.Address) + int(f.Command1) + int(f.Command2) + int(f.Data1) + int(f.Data2)) % 256
		assert.Equal(t, byte(sum), b[6])

		got, err := DecodeCommand(b)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestEncodeLiteral(t *testing.T) {
	f := Frame{Address: 0x01, Command1: 0x00, Command2: 0x05, Data1: 0x00, Data2: 0x01}
	assert.Equal(t, []byte{0xFF, 0x01, 0x00, 0x05, 0x00, 0x01, 0x07}, f.Encode())
	assert.Equal(t, "ff010005000107", f.String())
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"short", []byte{0xFF, 0x01, 0x00}, ErrBadLength},
		{"long", []byte{0xFF, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}, ErrBadLength},
		{"sync", []byte{0xFE, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01}, ErrBadSync},
		{"checksum", []byte{0xFF, 0x01, 0x00, 0x00, 0x00, 0x00, 0x02}, ErrChecksumMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCommand(tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeGeneralReply(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r, err := DecodeGeneralReply([]byte{0xFF, 0x01, 0x05, 0x06}, true)
		require.NoError(t, err)
		assert.Equal(t, byte(0x01), r.Address)
		assert.True(t, r.Alarm(1))
		assert.False(t, r.Alarm(2))
		assert.True(t, r.Alarm(3))
		assert.False(t, r.Alarm(9))
	})

	t.Run("bad length", func(t *testing.T) {
		_, err := DecodeGeneralReply([]byte{0xFF, 0x01, 0x00}, false)
		var le *LengthError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, GeneralReplyLength, le.Want)
		assert.Equal(t, 3, le.Got)
		assert.ErrorIs(t, err, ErrFrame)
	})

	t.Run("bad sync", func(t *testing.T) {
		_, err := DecodeGeneralReply([]byte{0x00, 0x01, 0x00, 0x01}, false)
		assert.ErrorIs(t, err, ErrBadSync)
	})

	t.Run("checksum toggle", func(t *testing.T) {
		garbled := []byte{0xFF, 0x01, 0x00, 0x55}
		_, err := DecodeGeneralReply(garbled, false)
		assert.NoError(t, err)

		_, err = DecodeGeneralReply(garbled, true)
		var ce *ChecksumError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, byte(0x01), ce.Expected)
		assert.Equal(t, byte(0x55), ce.Actual)
	})
}

func TestDecodeExtendedReply(t *testing.T) {
	reply := func(op Opcode, d1, d2 byte) []byte {
		b := []byte{0xFF, 0x01, 0x00, byte(op), d1, d2, 0}
		b[6] = Checksum(b[1:6])
		return b
	}

	r, err := DecodeExtendedReply(reply(OpQueryPanResponse, 0x46, 0x50), OpQueryPanResponse, true)
	require.NoError(t, err)
	assert.Equal(t, uint16(18000), r.Value())

	expected, ok := ReplyOpcode(OpQueryPan)
	require.True(t, ok)
	_, err = DecodeExtendedReply(reply(OpQueryZoomResponse, 0, 0), expected, true)
	var oe *OpcodeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, byte(0x59), oe.Expected)
	assert.Equal(t, byte(0x5D), oe.Actual)
	assert.ErrorIs(t, err, ErrUnexpectedOpcode)
	assert.ErrorIs(t, err, ErrProtocol)

	_, err = DecodeExtendedReply(reply(OpQueryPanResponse, 0, 0)[:6], OpQueryPanResponse, true)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestFrameCommandClassification(t *testing.T) {
	f := Frame{Address: 1, Command2: bitUp | bitLeft, Data1: 0x10, Data2: 0x20}
	s, ok := f.Command().(Standard)
	require.True(t, ok)
	assert.True(t, s.Up)
	assert.True(t, s.Left)
	assert.Equal(t, byte(0x10), s.PanSpeed)
	assert.Equal(t, byte(0x20), s.TiltSpeed)

	f = Frame{Address: 1, Command1: 0x01, Command2: byte(OpGain), Data1: 0x12, Data2: 0x34}
	e, ok := f.Command().(Extended)
	require.True(t, ok)
	assert.Equal(t, Extended{Opcode: OpGain, Sub: 0x01, Payload: 0x1234}, e)
	assert.NoError(t, VerifyChecksum(f.Encode()))
}
