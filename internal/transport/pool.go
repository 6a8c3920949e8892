package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// pooledConn is an idle Conn awaiting reuse, timestamped for reaping.
// Adapted from the teacher repo's core/connection_pool.go pooledConn.
type pooledConn struct {
	Conn
	addr     string
	lastUsed time.Time
}

// Pool manages reusable client-side Conns keyed by remote address, so the
// client library (pkg/client) does not redial for every RPC. Adapted from
// the teacher repo's core/connection_pool.go ConnPool, generalized from
// raw net.Conn to the message-framed transport.Conn this package defines.
type Pool struct {
	transport Transport
	mu        sync.Mutex
	conns     map[string][]*pooledConn
	maxIdle   int
	idleTTL   time.Duration
	closing   chan struct{}
	closeOnce sync.Once
}

// NewPool creates a connection pool dialing through t. maxIdle caps the
// number of idle connections kept per address; idleTTL bounds how long an
// idle connection survives before the reaper closes it.
func NewPool(t Transport, maxIdle int, idleTTL time.Duration) *Pool {
	p := &Pool{
		transport: t,
		conns:     make(map[string][]*pooledConn),
		maxIdle:   maxIdle,
		idleTTL:   idleTTL,
		closing:   make(chan struct{}),
	}
	go p.reaper()
	return p
}

// Acquire returns a pooled connection to addr, dialing a fresh one if none
// is idle.
func (p *Pool) Acquire(ctx context.Context, addr string) (Conn, error) {
	p.mu.Lock()
	list := p.conns[addr]
	n := len(list)
	if n > 0 {
		c := list[n-1]
		p.conns[addr] = list[:n-1]
		p.mu.Unlock()
		return c.Conn, nil
	}
	p.mu.Unlock()

	if p.transport == nil {
		return nil, errors.New("transport: pool has no transport configured")
	}
	return p.transport.Dial(ctx, addr)
}

// Release returns conn to the pool for addr, subject to maxIdle. Connections
// not accepted back into the pool are closed.
func (p *Pool) Release(addr string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxIdle > 0 && len(p.conns[addr]) < p.maxIdle {
		p.conns[addr] = append(p.conns[addr], &pooledConn{Conn: conn, addr: addr, lastUsed: time.Now()})
		return
	}
	_ = conn.Close()
}

// Stats returns the total number of idle connections currently pooled.
func (p *Pool) Stats() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, list := range p.conns {
		n += len(list)
	}
	return n
}

func (p *Pool) reaper() {
	ticker := time.NewTicker(p.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-p.closing:
			return
		case now := <-ticker.C:
			p.reapOnce(now)
		}
	}
}

func (p *Pool) reapOnce(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, list := range p.conns {
		kept := list[:0]
		for _, c := range list {
			if now.Sub(c.lastUsed) > p.idleTTL {
				_ = c.Close()
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(p.conns, addr)
		} else {
			p.conns[addr] = kept
		}
	}
}

// Close stops the reaper and closes every pooled connection.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() { close(p.closing) })
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, list := range p.conns {
		for _, c := range list {
			_ = c.Close()
		}
		delete(p.conns, addr)
	}
	return nil
}
