// Package transport models the peer-to-peer request/response fabric spec
// §1 treats as an external collaborator ("delivers length-prefixed binary
// messages between addressable accounts and holds each side's long-term
// keypair"). IPDIS's core is generic over this Transport capability (spec
// §9); this package supplies the one concrete implementation the
// repository needs to be runnable end to end, adapted from the teacher
// repo's core/network.go Dialer and core/connection_pool.go ConnPool.
package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ipdis-project/ipdis/pkg/model"
)

// maxMessageSize bounds a single framed message to guard against a
// malicious or corrupt length prefix exhausting memory.
const maxMessageSize = 64 << 20 // 64MiB

// Conn is one established connection to a peer account, framed at the
// message level.
type Conn interface {
	// RemoteAccount is the peer's account, established during handshake.
	RemoteAccount() model.Account
	// ReadMessage blocks for the next length-prefixed message.
	ReadMessage(ctx context.Context) ([]byte, error)
	// WriteMessage sends one length-prefixed message.
	WriteMessage(ctx context.Context, msg []byte) error
	Close() error
}

// Listener accepts inbound Conns.
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Addr() string
	Close() error
}

// Transport is the capability bundle's transport primitive (spec §9).
type Transport interface {
	Dial(ctx context.Context, addr string) (Conn, error)
	Listen(ctx context.Context, addr string) (Listener, error)
}

// writeFrame writes a 4-byte big-endian length prefix followed by msg.
func writeFrame(w io.Writer, msg []byte) error {
	if len(msg) > maxMessageSize {
		return fmt.Errorf("transport: message too large (%d bytes)", len(msg))
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(msg)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport: write length prefix: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("transport: write message body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed message from r.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxMessageSize {
		return nil, fmt.Errorf("transport: frame too large (%d bytes)", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("transport: read message body: %w", err)
	}
	return buf, nil
}
