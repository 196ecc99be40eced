// Package pool implements the session pool described in spec.md
// section 4.G: a fixed number of session slots, a semaphore gating how
// many connections may be Connected at once, and an accept loop
// grounded on server.go's serve/conn.serve split — one goroutine
// accepting with exponential backoff on temporary errors, one
// goroutine per connection running its session to completion.
package pool

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"aqwari.net/retry"

	"github.com/jrsharp/9p4z-sub001/config"
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/session"
	"github.com/jrsharp/9p4z-sub001/transport"
)

// Logger receives diagnostic information from a pool's accept loop.
// It is implemented by *log.Logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// ErrNoCapacity is returned when every session slot is in use.
var ErrNoCapacity = errors.New("pool: no free session slots")

// SlotState is the lifecycle state of one pool slot (spec.md section
// 4.G): Free -> Allocated -> Connected -> Disconnecting -> Free.
type SlotState int

const (
	Free SlotState = iota
	Allocated
	Connected
	Disconnecting
)

type slot struct {
	state SlotState
	sess  *session.Session
	rx    []byte
}

// A Pool owns MaxSessions session slots and the receive-buffer arena
// they are carved from. The zero Pool is not usable; create one with
// New.
type Pool struct {
	cfg     config.Config
	backend fs.FS
	logger  Logger

	mu    sync.Mutex
	slots []slot
	arena []byte

	sem *semaphore.Weighted
}

// New allocates a Pool sized by cfg.MaxSessions, including one
// preallocated arena of cfg.MaxSessions * cfg.EffectiveRxBufSize
// bytes, carved evenly across the slots, so that no per-connection
// receive buffer is allocated after startup (spec.md section 4.G).
func New(cfg config.Config, backend fs.FS, logger Logger) *Pool {
	if logger == nil {
		logger = nopLogger{}
	}
	bufSize := cfg.EffectiveRxBufSize()
	arena := make([]byte, cfg.MaxSessions*bufSize)
	slots := make([]slot, cfg.MaxSessions)
	for i := range slots {
		slots[i].rx = arena[i*bufSize : (i+1)*bufSize : (i+1)*bufSize]
	}
	return &Pool{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		slots:   slots,
		arena:   arena,
		sem:     semaphore.NewWeighted(int64(cfg.MaxSessions)),
	}
}

// State returns the current state of slot i.
func (p *Pool) State(i int) SlotState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots[i].state
}

// Count returns the number of slots currently in state st.
func (p *Pool) Count(st SlotState) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for i := range p.slots {
		if p.slots[i].state == st {
			n++
		}
	}
	return n
}

// alloc finds a Free slot, marks it Allocated and returns its index.
// The mutex is held only for the duration of the scan, per spec.md
// section 4.G.
func (p *Pool) alloc() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		if p.slots[i].state == Free {
			p.slots[i].state = Allocated
			return i, nil
		}
	}
	return -1, ErrNoCapacity
}

func (p *Pool) markConnected(i int, sess *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[i].state = Connected
	p.slots[i].sess = sess
}

func (p *Pool) markDisconnecting(i int) *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slots[i].state != Connected {
		return nil
	}
	p.slots[i].state = Disconnecting
	return p.slots[i].sess
}

func (p *Pool) free(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[i].state = Free
	p.slots[i].sess = nil
}

// DisconnectAll closes every Connected session's transport, as part
// of a full server shutdown.
func (p *Pool) DisconnectAll() {
	for i := range p.slots {
		if sess := p.markDisconnecting(i); sess != nil {
			sess.Close()
			p.free(i)
		}
	}
}

// Serve runs the accept loop: for every accepted connection it
// acquires one unit of the pool's capacity semaphore, claims a free
// slot, and runs the connection's session to completion on its own
// goroutine. A temporary Accept error is retried with exponential
// backoff, the same policy server.go's serve uses; any other error
// ends the loop.
func (p *Pool) Serve(l net.Listener) error {
	type tempErr interface {
		Temporary() bool
	}
	backoff := retry.Exponential(time.Millisecond).Max(time.Second)
	try := 0

	for {
		conn, err := l.Accept()
		if err != nil {
			if te, ok := err.(tempErr); ok && te.Temporary() {
				try++
				d := backoff(try)
				p.logger.Printf("pool: accept error: %v; retrying in %v", err, d)
				time.Sleep(d)
				continue
			}
			return err
		}
		try = 0
		go p.serveConn(conn)
	}
}

func (p *Pool) serveConn(conn net.Conn) {
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		conn.Close()
		return
	}
	defer p.sem.Release(1)

	idx, err := p.alloc()
	if err != nil {
		p.logger.Printf("pool: rejecting connection: %v", err)
		conn.Close()
		return
	}

	tr := transport.NewStreamPipeBuffered(conn, p.slots[idx].rx)
	sess := session.New(p.cfg, p.backend, tr, p.logger)
	p.markConnected(idx, sess)

	if err := sess.Serve(); err != nil {
		p.logger.Printf("pool: session serve failed: %v", err)
		conn.Close()
		p.free(idx)
		return
	}

	<-tr.Done()
	sess.Close()
	p.free(idx)
}
