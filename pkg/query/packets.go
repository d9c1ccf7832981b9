package query

import "encoding/binary"

// Client-bound packets share one layout: u16 magic, u8 type, u32 masked
// session id, then zero or more big-endian u32 payload words. The total
// length is fixed per packet kind, so each kind gets its own array type and
// requests never allocate.

const (
	// magicNumber prefixes every client-bound packet.
	magicNumber uint16 = 0xFEFD
	// sessionMask zeroes the high nibble of every session id byte; servers
	// ignore those bits and some reject ids that carry them.
	sessionMask uint32 = 0x0F0F0F0F
)

// PacketType is the single-byte packet kind tag shared by requests and
// responses.
type PacketType byte

const (
	// PacketStat tags basic and full status packets.
	PacketStat PacketType = 0
	// PacketHandshake tags handshake packets.
	PacketHandshake PacketType = 9
)

// String returns the wire name of the packet type.
func (t PacketType) String() string {
	switch t {
	case PacketStat:
		return "stat"
	case PacketHandshake:
		return "handshake"
	default:
		return "unknown"
	}
}

// writePacket lays out the common prefix and payload words into dst. dst must
// be exactly 7 + 4*len(payload) bytes.
func writePacket(dst []byte, t PacketType, sessionID uint32, payload ...uint32) {
	binary.BigEndian.PutUint16(dst[0:2], magicNumber)
	dst[2] = byte(t)
	binary.BigEndian.PutUint32(dst[3:7], sessionID&sessionMask)
	for i, word := range payload {
		binary.BigEndian.PutUint32(dst[7+4*i:], word)
	}
}

// HandshakePacket is a 7-byte handshake request. The payload is empty.
type HandshakePacket [7]byte

// NewHandshake builds a handshake request for the given session id.
func NewHandshake(sessionID uint32) HandshakePacket {
	var p HandshakePacket
	writePacket(p[:], PacketHandshake, sessionID)
	return p
}

// Bytes returns the packet as a slice over the fixed array.
func (p *HandshakePacket) Bytes() []byte { return p[:] }

// BasicStatPacket is an 11-byte basic status request. The payload is the
// challenge token from a handshake.
type BasicStatPacket [11]byte

// NewBasicStat builds a basic status request for the given session id and token.
func NewBasicStat(sessionID uint32, token Token) BasicStatPacket {
	var p BasicStatPacket
	writePacket(p[:], PacketStat, sessionID, uint32(token))
	return p
}

// Bytes returns the packet as a slice over the fixed array.
func (p *BasicStatPacket) Bytes() []byte { return p[:] }

// FullStatPacket is a 15-byte full status request: the challenge token plus a
// zero padding word the protocol requires to distinguish it from a basic
// status request.
type FullStatPacket [15]byte

// NewFullStat builds a full status request for the given session id and token.
func NewFullStat(sessionID uint32, token Token) FullStatPacket {
	var p FullStatPacket
	writePacket(p[:], PacketStat, sessionID, uint32(token), 0)
	return p
}

// Bytes returns the packet as a slice over the fixed array.
func (p *FullStatPacket) Bytes() []byte { return p[:] }
