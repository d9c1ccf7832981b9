package query

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer answers Query protocol requests on a loopback UDP socket. A nil
// reply for a packet kind makes the server stay silent so timeout paths can
// be exercised.
type fakeServer struct {
	conn *net.UDPConn

	handshakeReply []byte // payload after the response header
	statReply      []byte
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	s := &fakeServer{conn: conn}
	go s.serve()

	return s
}

func (s *fakeServer) port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

func (s *fakeServer) serve() {
	buf := make([]byte, 64)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n < 7 || binary.BigEndian.Uint16(buf[:2]) != 0xFEFD {
			continue
		}

		var payload []byte
		switch PacketType(buf[2]) {
		case PacketHandshake:
			payload = s.handshakeReply
		case PacketStat:
			payload = s.statReply
		}
		if payload == nil {
			continue
		}

		// Response header: type tag plus the echoed session id.
		reply := append([]byte{buf[2]}, buf[3:7]...)
		reply = append(reply, payload...)
		_, _ = s.conn.WriteToUDP(reply, addr)
	}
}

func newTestClient(t *testing.T, srv *fakeServer) *Client {
	t.Helper()

	client, err := New("127.0.0.1", srv.port())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	client.Timeout = 250 * time.Millisecond

	return client
}

func TestClientHandshake(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("9513307\x00")

	client := newTestClient(t, srv)
	token, err := client.Handshake()
	require.NoError(t, err)
	require.Equal(t, Token(9513307), token)
}

func TestClientBasicStat(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")
	srv.statReply = []byte("A Minecraft Server\x00SMP\x00world\x002\x0020\x00\xDD\x63127.0.0.1\x00")

	client := newTestClient(t, srv)
	token, err := client.Handshake()
	require.NoError(t, err)

	stat, err := client.BasicStat(token)
	require.NoError(t, err)
	require.Equal(t, "A Minecraft Server", stat.MOTD)
	require.Equal(t, uint16(25565), stat.HostPort)
}

func TestClientQuery(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")
	srv.statReply = fullStatPayload(fullStatKV, "AldanTanneo\x00Dinnerbone\x00\x00")

	client := newTestClient(t, srv)
	stat, err := client.Query()
	require.NoError(t, err)
	require.Equal(t, "A Minecraft Server", stat.Hostname)
	require.Equal(t, []string{"AldanTanneo", "Dinnerbone"}, stat.Players)
}

func TestClientQueryAsync(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")
	srv.statReply = fullStatPayload(fullStatKV, "\x00")

	client := newTestClient(t, srv)
	res := <-client.QueryAsync()
	require.NoError(t, res.Err)
	require.Equal(t, "world", res.Stat.Map)
}

func TestClientBasicStatAsync(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")
	srv.statReply = []byte("motd\x00SMP\x00world\x000\x0020\x00\xDD\x63127.0.0.1\x00")

	client := newTestClient(t, srv)
	res := <-client.BasicStatAsync()
	require.NoError(t, res.Err)
	require.Equal(t, uint32(20), res.Stat.MaxPlayers)
}

func TestClientHandshakeTimeout(t *testing.T) {
	srv := newFakeServer(t) // never replies

	client := newTestClient(t, srv)
	client.Timeout = 50 * time.Millisecond

	_, err := client.Handshake()
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

func TestClientQueryPropagatesStatFailure(t *testing.T) {
	// Handshake succeeds, the stat stage then times out; Query must surface
	// the stat failure without retrying the handshake.
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")

	client := newTestClient(t, srv)
	client.Timeout = 50 * time.Millisecond

	_, err := client.Query()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

func TestClientContextCancel(t *testing.T) {
	srv := newFakeServer(t) // never replies

	client := newTestClient(t, srv)
	client.Timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.HandshakeContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 5*time.Second, "cancel must unblock the receive")
}

func TestClientContextDeadline(t *testing.T) {
	srv := newFakeServer(t)

	client := newTestClient(t, srv)
	client.Timeout = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.QueryContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientShortResponse(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("42\x00")
	srv.statReply = []byte{} // header only, empty payload

	client := newTestClient(t, srv)
	token, err := client.Handshake()
	require.NoError(t, err)

	_, err = client.BasicStat(token)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestClientSessionIDMasked(t *testing.T) {
	srv := newFakeServer(t)
	client := newTestClient(t, srv)

	sid := client.SessionID()
	require.Equal(t, sid, sid&0x0F0F0F0F)
}

func TestNewWithAddr(t *testing.T) {
	t.Run("host and port", func(t *testing.T) {
		client, err := NewWithAddr("127.0.0.1:12345")
		require.NoError(t, err)
		defer func() { _ = client.Close() }()
		require.Equal(t, "127.0.0.1:12345", client.conn.RemoteAddr().String())
	})

	t.Run("default port", func(t *testing.T) {
		client, err := NewWithAddr("127.0.0.1")
		require.NoError(t, err)
		defer func() { _ = client.Close() }()
		require.Equal(t, "127.0.0.1:25565", client.conn.RemoteAddr().String())
	})

	t.Run("bad port", func(t *testing.T) {
		_, err := NewWithAddr("127.0.0.1:notaport")
		require.Error(t, err)
	})
}

func TestSeparateClientsAreIndependent(t *testing.T) {
	srv := newFakeServer(t)
	srv.handshakeReply = []byte("7\x00")

	a := newTestClient(t, srv)
	b := newTestClient(t, srv)

	errs := make(chan error, 2)
	for _, c := range []*Client{a, b} {
		go func(c *Client) {
			_, err := c.Handshake()
			errs <- err
		}(c)
	}

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestExchangeSendFailure(t *testing.T) {
	srv := newFakeServer(t)
	client := newTestClient(t, srv)
	require.NoError(t, client.Close())

	_, err := client.Handshake()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInsufficientData))
}
