package query

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// Response payload size ceilings, in bytes. They bound the server reply, they
// do not guarantee its length; receive buffers must be at least this large.
const (
	// HandshakeResponseSize bounds a handshake reply.
	HandshakeResponseSize = 16
	// BasicStatResponseSize bounds a basic status reply.
	BasicStatResponseSize = 512
	// FullStatResponseSize bounds a full status reply, one MTU-sized datagram.
	FullStatResponseSize = 1472
)

// responseHeaderSize is the server-bound header stripped before payload
// parsing: 1 byte type tag plus 4 bytes session id.
const responseHeaderSize = 5

// nul is the delimiter between text fields in status payloads.
var nul = []byte{0}

// Token is the challenge value issued by a handshake. It authorizes status
// requests for roughly 30 seconds; expiry is not tracked client-side and
// shows up as a receive timeout on the next request.
type Token uint32

// ParseToken decodes a token from a handshake response payload. It reads
// leading decimal digits and stops at the first non-digit byte (normally the
// terminating NUL) or end of payload. It never fails: a truncated or garbled
// reply still yields a best-effort value for the caller to try, so a payload
// with no digits at all decodes to Token(0).
func ParseToken(payload []byte) Token {
	var v uint32
	for _, c := range payload {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint32(c-'0')
	}

	return Token(v)
}

// BasicStat is the abbreviated server status from a basic stat exchange.
type BasicStat struct {
	// MOTD is the server message of the day shown in the server browser.
	MOTD string
	// GameType is hardcoded to "SMP" by vanilla servers.
	GameType string
	// Map is the name of the default world.
	Map string
	// HostIP is the address the server accepts connections on.
	HostIP string
	// NumPlayers is the current online player count.
	NumPlayers uint32
	// MaxPlayers is the configured player cap.
	MaxPlayers uint32
	// HostPort is the game port the server listens on.
	HostPort uint16
}

// ParseBasicStat decodes a basic status response payload (header already
// stripped). The payload is six NUL-delimited segments; the last one is not
// text but two raw little-endian port bytes followed by the host IP, which
// runs to the end of the stream with no terminator of its own.
func ParseBasicStat(payload []byte) (*BasicStat, error) {
	fields := bytes.Split(payload, nul)
	if len(fields) < 6 {
		return nil, &ParseError{Kind: KindInsufficientData, Field: basicFieldAt(len(fields))}
	}

	numPlayers, err := decimalFromBytes[uint32]("numplayers", fields[3])
	if err != nil {
		return nil, err
	}
	maxPlayers, err := decimalFromBytes[uint32]("maxplayers", fields[4])
	if err != nil {
		return nil, err
	}

	tail := fields[5]
	if len(tail) < 2 {
		return nil, &ParseError{Kind: KindMalformedValue, Field: "hostport"}
	}

	return &BasicStat{
		MOTD:       latin1String(fields[0]),
		GameType:   latin1String(fields[1]),
		Map:        latin1String(fields[2]),
		NumPlayers: numPlayers,
		MaxPlayers: maxPlayers,
		HostPort:   binary.LittleEndian.Uint16(tail[:2]),
		HostIP:     latin1String(tail[2:]),
	}, nil
}

// basicFieldAt names the first missing basic stat segment for error reporting.
func basicFieldAt(i int) string {
	names := []string{"motd", "gametype", "map", "numplayers", "maxplayers", "hostport"}
	if i < len(names) {
		return names[i]
	}

	return ""
}

// FullStat is the extended server status from a full stat exchange.
type FullStat struct {
	// Hostname is the server message of the day, despite the key name.
	Hostname string
	// GameType is hardcoded to "SMP" by vanilla servers.
	GameType string
	// GameID is hardcoded to "MINECRAFT" by vanilla servers.
	GameID string
	// Version is the game version, e.g. "1.16.2".
	Version string
	// Plugins lists server plugins; the format varies by server framework.
	Plugins string
	// Map is the name of the default world.
	Map string
	// HostIP is the address the server accepts connections on.
	HostIP string
	// Players holds the names of online players in stream order. The server
	// does not guarantee len(Players) == NumPlayers.
	Players []string
	// NumPlayers is the current online player count.
	NumPlayers uint32
	// MaxPlayers is the configured player cap.
	MaxPlayers uint32
	// HostPort is the game port the server listens on.
	HostPort uint16
}

const fullStatLeadIn = 11

// sectionSeparator divides the key/value section from the player list in a
// full status payload.
var sectionSeparator = []byte("\x00\x00\x01player_\x00\x00")

// ParseFullStat decodes a full status response payload (header already
// stripped). After an 11-byte lead-in the payload splits at a fixed 12-byte
// separator into a key/value section and a player section. A missing
// separator is a structural failure; a key/value failure returns before the
// player list is touched.
func ParseFullStat(payload []byte) (*FullStat, error) {
	if len(payload) < fullStatLeadIn {
		return nil, &ParseError{Kind: KindInsufficientData}
	}

	kvSection, playerSection, ok := splitAtSubslice(payload[fullStatLeadIn:], sectionSeparator)
	if !ok {
		return nil, &ParseError{Kind: KindStructural, Field: "section separator"}
	}

	stat, err := parseKVSection(kvSection)
	if err != nil {
		return nil, err
	}

	for _, name := range bytes.Split(playerSection, nul) {
		if len(name) == 0 {
			continue
		}
		stat.Players = append(stat.Players, latin1String(name))
	}

	return stat, nil
}

// parseKVSection decodes the NUL-delimited key/value pairs of a full status
// payload. Keys are unordered on the wire; on a duplicate key the later pair
// wins. An odd trailing segment is dropped.
func parseKVSection(section []byte) (*FullStat, error) {
	kv := make(map[string]string)
	pairs(bytes.Split(section, nul), func(key, value []byte) {
		kv[latin1String(key)] = latin1String(value)
	})

	get := func(key string) (string, error) {
		v, ok := kv[key]
		if !ok {
			return "", &ParseError{Kind: KindInsufficientData, Field: key}
		}
		return v, nil
	}

	var stat FullStat
	var err error
	if stat.Hostname, err = get("hostname"); err != nil {
		return nil, err
	}
	if stat.GameType, err = get("gametype"); err != nil {
		return nil, err
	}
	if stat.GameID, err = get("game_id"); err != nil {
		return nil, err
	}
	if stat.Version, err = get("version"); err != nil {
		return nil, err
	}
	if stat.Plugins, err = get("plugins"); err != nil {
		return nil, err
	}
	if stat.Map, err = get("map"); err != nil {
		return nil, err
	}
	if stat.HostIP, err = get("hostip"); err != nil {
		return nil, err
	}

	if stat.NumPlayers, err = kvUint32(kv, "numplayers"); err != nil {
		return nil, err
	}
	if stat.MaxPlayers, err = kvUint32(kv, "maxplayers"); err != nil {
		return nil, err
	}

	port, ok := kv["hostport"]
	if !ok {
		return nil, &ParseError{Kind: KindInsufficientData, Field: "hostport"}
	}
	p, perr := strconv.ParseUint(port, 10, 16)
	if perr != nil {
		return nil, &ParseError{Kind: KindMalformedValue, Field: "hostport"}
	}
	stat.HostPort = uint16(p)

	return &stat, nil
}

// kvUint32 fetches a required key and parses it as unsigned 32-bit decimal text.
func kvUint32(kv map[string]string, key string) (uint32, error) {
	v, ok := kv[key]
	if !ok {
		return 0, &ParseError{Kind: KindInsufficientData, Field: key}
	}

	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, &ParseError{Kind: KindMalformedValue, Field: key}
	}

	return uint32(n), nil
}
