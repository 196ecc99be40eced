package transport

import (
	"errors"
	"net"
	"sync"
)

var errListenerClosed = errors.New("transport: listener closed")

// PipeListener is a net.Listener backed by net.Pipe, needing no
// socket permissions. It exists so pool/session tests can exercise a
// full accept loop without a real network, the same role
// droyo-styx's internal/netutil.PipeListener plays in its own tests.
type PipeListener struct {
	once     sync.Once
	incoming chan net.Conn
	shutdown chan struct{}
}

func (l *PipeListener) init() {
	l.once.Do(func() {
		l.incoming = make(chan net.Conn)
		l.shutdown = make(chan struct{})
	})
}

// Accept blocks until a new connection is dialed or the listener is
// closed.
func (l *PipeListener) Accept() (net.Conn, error) {
	l.init()
	select {
	case c := <-l.incoming:
		return c, nil
	case <-l.shutdown:
		return nil, errListenerClosed
	}
}

// Dial creates a new in-process connection, handing one end to a
// pending Accept and returning the other.
func (l *PipeListener) Dial() (net.Conn, error) {
	l.init()
	client, server := net.Pipe()
	select {
	case <-l.shutdown:
		client.Close()
		server.Close()
		return nil, errListenerClosed
	case l.incoming <- server:
		return client, nil
	}
}

// Close stops the listener. Safe to call more than once.
func (l *PipeListener) Close() error {
	l.init()
	select {
	case <-l.shutdown:
	default:
		close(l.shutdown)
	}
	return nil
}

type pipeAddr struct{}

func (pipeAddr) String() string  { return "pipe" }
func (pipeAddr) Network() string { return "pipe" }

// Addr returns a placeholder net.Addr; PipeListener has no real
// network address.
func (l *PipeListener) Addr() net.Addr {
	l.init()
	return pipeAddr{}
}
