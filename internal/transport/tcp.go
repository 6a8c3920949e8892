package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ipdis-project/ipdis/pkg/model"
)

// TCPTransport dials and listens on plain TCP, framing each message with a
// 4-byte length prefix (transport.go). Adapted from the teacher repo's
// core/network.go Dialer, generalized from a bare net.Conn factory into a
// full Transport (Dial + Listen) since IPDIS needs to both originate RPCs
// (client library) and accept them (server).
type TCPTransport struct {
	self    model.Account
	dialer  net.Dialer
	handTTL time.Duration
}

// NewTCPTransport builds a transport that identifies itself as self on
// every connection's handshake frame.
func NewTCPTransport(self model.Account, dialTimeout, keepAlive time.Duration) *TCPTransport {
	return &TCPTransport{
		self: self,
		dialer: net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		},
		handTTL: dialTimeout,
	}
}

// Dial connects to addr and exchanges the unauthenticated account-identity
// handshake frame. Authentication of the *content* that follows is the
// guarantee/guarantor signature protocol's job (pkg/signing), not the
// transport's — spec §1 scopes signature primitives out of the transport.
func (t *TCPTransport) Dial(ctx context.Context, addr string) (Conn, error) {
	nc, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	c := &tcpConn{nc: nc}
	if err := c.handshake(ctx, t.self); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return c, nil
}

// Listen opens a TCP listener at addr.
func (t *TCPTransport) Listen(_ context.Context, addr string) (Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &tcpListener{ln: ln, self: t.self}, nil
}

type tcpListener struct {
	ln   net.Listener
	self model.Account
}

func (l *tcpListener) Accept(ctx context.Context) (Conn, error) {
	nc, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("transport: accept: %w", err)
	}
	c := &tcpConn{nc: nc}
	if err := c.handshake(ctx, l.self); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return c, nil
}

func (l *tcpListener) Addr() string { return l.ln.Addr().String() }
func (l *tcpListener) Close() error { return l.ln.Close() }

type tcpConn struct {
	nc     net.Conn
	remote model.Account
	mu     sync.Mutex
}

func (c *tcpConn) handshake(ctx context.Context, self model.Account) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetDeadline(dl)
		defer c.nc.SetDeadline(time.Time{})
	}
	if err := writeFrame(c.nc, self[:]); err != nil {
		return fmt.Errorf("transport: handshake send: %w", err)
	}
	peer, err := readFrame(c.nc)
	if err != nil {
		return fmt.Errorf("transport: handshake recv: %w", err)
	}
	if len(peer) != len(c.remote) {
		return fmt.Errorf("transport: handshake: unexpected account length %d", len(peer))
	}
	copy(c.remote[:], peer)
	return nil
}

func (c *tcpConn) RemoteAccount() model.Account { return c.remote }

func (c *tcpConn) ReadMessage(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetReadDeadline(dl)
		defer c.nc.SetReadDeadline(time.Time{})
	}
	return readFrame(c.nc)
}

func (c *tcpConn) WriteMessage(ctx context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetWriteDeadline(dl)
		defer c.nc.SetWriteDeadline(time.Time{})
	}
	return writeFrame(c.nc, msg)
}

func (c *tcpConn) Close() error { return c.nc.Close() }
