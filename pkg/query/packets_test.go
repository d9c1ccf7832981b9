package query

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketLengths(t *testing.T) {
	h := NewHandshake(0xDEADBEEF)
	require.Len(t, h.Bytes(), 7)

	b := NewBasicStat(0xDEADBEEF, Token(0xFFFFFFFF))
	require.Len(t, b.Bytes(), 11)

	f := NewFullStat(0xDEADBEEF, Token(0xFFFFFFFF))
	require.Len(t, f.Bytes(), 15)
}

func TestHandshakePacketLayout(t *testing.T) {
	p := NewHandshake(0x01020304)

	require.Equal(t, []byte{0xFE, 0xFD, 9, 0x01, 0x02, 0x03, 0x04}, p.Bytes())
}

func TestBasicStatPacketLayout(t *testing.T) {
	p := NewBasicStat(0x01020304, Token(0x0A0B0C0D))

	require.Equal(t, []byte{
		0xFE, 0xFD, // magic
		0,                      // stat type
		0x01, 0x02, 0x03, 0x04, // session id
		0x0A, 0x0B, 0x0C, 0x0D, // token
	}, p.Bytes())
}

func TestFullStatPacketLayout(t *testing.T) {
	p := NewFullStat(0x01020304, Token(0x0A0B0C0D))

	require.Equal(t, []byte{
		0xFE, 0xFD,
		0,
		0x01, 0x02, 0x03, 0x04,
		0x0A, 0x0B, 0x0C, 0x0D,
		0, 0, 0, 0, // padding word
	}, p.Bytes())
}

func TestSessionIDMasking(t *testing.T) {
	// The high nibble of every session id byte must be zeroed on the wire.
	for _, sid := range []uint32{0, 0xFFFFFFFF, 0xDEADBEEF, 0x0F0F0F0F, 0xF0F0F0F0, 0x12345678} {
		h := NewHandshake(sid)
		encoded := binary.BigEndian.Uint32(h.Bytes()[3:7])
		require.Equal(t, sid&0x0F0F0F0F, encoded, "session id %#x", sid)
		require.Equal(t, encoded, encoded&0x0F0F0F0F, "mask must be idempotent")

		b := NewBasicStat(sid, 0)
		require.Equal(t, sid&0x0F0F0F0F, binary.BigEndian.Uint32(b.Bytes()[3:7]))

		f := NewFullStat(sid, 0)
		require.Equal(t, sid&0x0F0F0F0F, binary.BigEndian.Uint32(f.Bytes()[3:7]))
	}
}

func TestTokenNotMasked(t *testing.T) {
	// Only the session id is masked; the token must round-trip untouched.
	p := NewBasicStat(0, Token(0xFFFFFFFF))
	require.Equal(t, uint32(0xFFFFFFFF), binary.BigEndian.Uint32(p.Bytes()[7:11]))
}

func TestPacketTypeString(t *testing.T) {
	require.Equal(t, "handshake", PacketHandshake.String())
	require.Equal(t, "stat", PacketStat.String())
	require.Equal(t, "unknown", PacketType(42).String())
}
