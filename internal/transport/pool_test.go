package transport

import (
	"context"
	"testing"
	"time"

	"github.com/ipdis-project/ipdis/pkg/model"
)

func startTestListener(t *testing.T) (*TCPTransport, Listener) {
	t.Helper()
	var self model.Account
	self[0] = 1
	tp := NewTCPTransport(self, time.Second, time.Second)
	ln, err := tp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept(context.Background())
			if err != nil {
				return
			}
			go func() {
				for {
					msg, err := c.ReadMessage(context.Background())
					if err != nil {
						return
					}
					if err := c.WriteMessage(context.Background(), msg); err != nil {
						return
					}
				}
			}()
		}
	}()
	return tp, ln
}

func TestPoolAcquireReuse(t *testing.T) {
	tp, ln := startTestListener(t)
	defer ln.Close()

	pool := NewPool(tp, 2, time.Second)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c1, err := pool.Acquire(ctx, ln.Addr())
	if err != nil {
		t.Fatalf("acquire1: %v", err)
	}
	pool.Release(ln.Addr(), c1)
	if got := pool.Stats(); got != 1 {
		t.Fatalf("expected 1 idle connection, got %d", got)
	}

	c2, err := pool.Acquire(ctx, ln.Addr())
	if err != nil {
		t.Fatalf("acquire2: %v", err)
	}
	if c1 != c2 {
		t.Fatal("expected the pool to reuse the released connection")
	}
	pool.Release(ln.Addr(), c2)
}

func TestPoolReaper(t *testing.T) {
	tp, ln := startTestListener(t)
	defer ln.Close()

	idle := 80 * time.Millisecond
	pool := NewPool(tp, 2, idle)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c, err := pool.Acquire(ctx, ln.Addr())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Release(ln.Addr(), c)
	if got := pool.Stats(); got != 1 {
		t.Fatalf("expected 1 idle connection, got %d", got)
	}

	time.Sleep(3 * idle)
	if got := pool.Stats(); got != 0 {
		t.Fatalf("expected the reaper to close idle connections, got %d", got)
	}
}

func TestTCPTransportRoundTrip(t *testing.T) {
	var self model.Account
	self[0] = 2
	tp := NewTCPTransport(self, time.Second, time.Second)
	ln, err := tp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var acceptErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := ln.Accept(context.Background())
		if err != nil {
			acceptErr = err
			return
		}
		defer c.Close()
		msg, err := c.ReadMessage(context.Background())
		if err != nil {
			acceptErr = err
			return
		}
		acceptErr = c.WriteMessage(context.Background(), msg)
	}()

	conn, err := tp.Dial(context.Background(), ln.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if conn.RemoteAccount()[0] != 2 {
		t.Fatalf("expected handshake to report the listener's account")
	}

	want := []byte("hello ipdis")
	if err := conn.WriteMessage(context.Background(), want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := conn.ReadMessage(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	<-done
	if acceptErr != nil {
		t.Fatalf("server side: %v", acceptErr)
	}
	if string(got) != string(want) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, want)
	}
}
