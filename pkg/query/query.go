// Package query implements a client for the Minecraft Query UDP protocol.
// It builds the three fixed-size request packets (handshake, basic stat,
// full stat), drives a single request/response exchange per call against a
// connected UDP socket, and parses the reply payloads into status records.
package query

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the default Minecraft server port.
const DefaultPort = 25565

// DefaultTimeout bounds the receive step of every exchange unless overridden
// via Client.Timeout.
const DefaultTimeout = 500 * time.Millisecond

// Client is a Query protocol client bound to one server. Each client owns
// its UDP socket exclusively and keeps one request in flight at a time, so a
// single Client must not be used from multiple goroutines concurrently;
// separate clients share nothing and need no locking.
type Client struct {
	conn *net.UDPConn

	// Timeout bounds the receive step of each exchange. Elapsing it yields a
	// net.Error with Timeout() == true, the same way an expired challenge
	// token does (the server simply stops answering).
	Timeout time.Duration

	// BufferSize is the receive buffer ceiling for full stat responses.
	BufferSize uint16

	sessionID uint32
}

// New creates a client connected to the given server IP and port. The local
// socket binds to an ephemeral port on all interfaces.
func New(ip string, port int) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:       conn,
		Timeout:    DefaultTimeout,
		BufferSize: FullStatResponseSize,

		// The session id only correlates requests with responses; clock
		// nanoseconds are unique enough. The encoder masks it on send.
		sessionID: uint32(time.Now().UnixNano()),
	}, nil
}

// NewWithAddr creates a client from a "host" or "host:port" address,
// defaulting to DefaultPort when no port is given.
func NewWithAddr(addr string) (*Client, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.Contains(addr, ":") {
			return nil, err
		}
		return New(addr, DefaultPort)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return New(host, port)
}

// SessionID returns the client's session id as sent on the wire, after masking.
func (c *Client) SessionID() uint32 {
	return c.sessionID & sessionMask
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// transport is the capability the protocol sequencing needs from a socket: a
// non-blocking datagram send and a deadline-bounded single-datagram receive.
// The blocking and context call shapes are thin adapters over it.
type transport interface {
	Send(b []byte) error
	Receive(buf []byte) (int, error)
}

// exchange performs one request/response round trip and strips the 5-byte
// response header. A reply shorter than the header is an insufficient-data
// failure; a reply that never arrives surfaces as the transport's timeout
// error.
func exchange(t transport, req []byte, size int) ([]byte, error) {
	if err := t.Send(req); err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	n, err := t.Receive(buf)
	if err != nil {
		return nil, err
	}
	if n < responseHeaderSize {
		return nil, &ParseError{Kind: KindInsufficientData, Field: "response header"}
	}

	return buf[responseHeaderSize:n], nil
}

// handshake sends a handshake request and parses the returned challenge token.
func handshake(t transport, sessionID uint32) (Token, error) {
	req := NewHandshake(sessionID)
	payload, err := exchange(t, req.Bytes(), HandshakeResponseSize)
	if err != nil {
		return 0, err
	}

	return ParseToken(payload), nil
}

// basicStat requests and parses an abbreviated server status.
func basicStat(t transport, sessionID uint32, token Token) (*BasicStat, error) {
	req := NewBasicStat(sessionID, token)
	payload, err := exchange(t, req.Bytes(), BasicStatResponseSize)
	if err != nil {
		return nil, err
	}

	return ParseBasicStat(payload)
}

// fullStat requests and parses an extended server status.
func fullStat(t transport, sessionID uint32, token Token, size int) (*FullStat, error) {
	req := NewFullStat(sessionID, token)
	payload, err := exchange(t, req.Bytes(), size)
	if err != nil {
		return nil, err
	}

	return ParseFullStat(payload)
}

// fullQuery composes exactly one handshake and one full stat request,
// propagating the first failure without retrying either stage.
func fullQuery(t transport, sessionID uint32, size int) (*FullStat, error) {
	token, err := handshake(t, sessionID)
	if err != nil {
		return nil, err
	}

	return fullStat(t, sessionID, token, size)
}

// fullStatBufferSize clamps the configured ceiling so a shrunken BufferSize
// can never drop the response header.
func (c *Client) fullStatBufferSize() int {
	if int(c.BufferSize) < responseHeaderSize {
		return FullStatResponseSize
	}

	return int(c.BufferSize)
}

// blockingTransport reads with a fixed deadline relative to each receive.
type blockingTransport struct {
	conn    *net.UDPConn
	timeout time.Duration
}

func (t blockingTransport) Send(b []byte) error {
	_, err := t.conn.Write(b)
	return err
}

func (t blockingTransport) Receive(buf []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, err
	}

	return t.conn.Read(buf)
}

func (c *Client) blocking() transport {
	return blockingTransport{conn: c.conn, timeout: c.Timeout}
}

// Handshake requests a challenge token, valid for roughly 30 seconds.
func (c *Client) Handshake() (Token, error) {
	return handshake(c.blocking(), c.sessionID)
}

// BasicStat requests an abbreviated server status using a handshake token.
// An expired token surfaces as a receive timeout.
func (c *Client) BasicStat(token Token) (*BasicStat, error) {
	return basicStat(c.blocking(), c.sessionID, token)
}

// FullStat requests an extended server status using a handshake token.
// An expired token surfaces as a receive timeout.
func (c *Client) FullStat(token Token) (*FullStat, error) {
	return fullStat(c.blocking(), c.sessionID, token, c.fullStatBufferSize())
}

// Query performs a handshake followed by a full stat request, returning
// whichever stage fails first.
func (c *Client) Query() (*FullStat, error) {
	return fullQuery(c.blocking(), c.sessionID, c.fullStatBufferSize())
}

// ctxTransport reads under the earlier of the client timeout and the context
// deadline, and unblocks the read when the context is canceled.
type ctxTransport struct {
	ctx     context.Context
	conn    *net.UDPConn
	timeout time.Duration
}

func (t ctxTransport) Send(b []byte) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}

	_, err := t.conn.Write(b)
	return err
}

func (t ctxTransport) Receive(buf []byte) (int, error) {
	deadline := time.Now().Add(t.timeout)
	if d, ok := t.ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	// Cancellation forces the pending read to fail by expiring its deadline.
	stop := context.AfterFunc(t.ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := t.conn.Read(buf)
	if err != nil {
		if ctxErr := t.ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}

	return n, nil
}

func (c *Client) withContext(ctx context.Context) transport {
	return ctxTransport{ctx: ctx, conn: c.conn, timeout: c.Timeout}
}

// HandshakeContext is Handshake bounded additionally by ctx.
func (c *Client) HandshakeContext(ctx context.Context) (Token, error) {
	return handshake(c.withContext(ctx), c.sessionID)
}

// BasicStatContext is BasicStat bounded additionally by ctx.
func (c *Client) BasicStatContext(ctx context.Context, token Token) (*BasicStat, error) {
	return basicStat(c.withContext(ctx), c.sessionID, token)
}

// FullStatContext is FullStat bounded additionally by ctx.
func (c *Client) FullStatContext(ctx context.Context, token Token) (*FullStat, error) {
	return fullStat(c.withContext(ctx), c.sessionID, token, c.fullStatBufferSize())
}

// QueryContext is Query bounded additionally by ctx.
func (c *Client) QueryContext(ctx context.Context) (*FullStat, error) {
	return fullQuery(c.withContext(ctx), c.sessionID, c.fullStatBufferSize())
}
