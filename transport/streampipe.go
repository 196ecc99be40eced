package transport

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"
)

// StreamPipe adapts any io.ReadWriteCloser into a Transport by
// framing messages with their leading size[4] length prefix, the
// framing spec.md section 4.F specifies for stream transports (UART,
// TCP). It plays the same role droyo-styx's bufio.Reader-backed
// styxproto.Decoder plays on top of a net.Conn, generalized here to
// sit behind the Transport interface instead of being read directly
// by the session.
//
// Datagram block-wise reassembly and Bluetooth L2CAP framing are
// transport drivers outside this module's scope (spec.md section 1);
// StreamPipe exists to give the session/pool packages a concrete,
// testable transport to wire F to E with, the same role net.Pipe
// plays in the teacher's own server_test.go.
type StreamPipe struct {
	rwc io.ReadWriteCloser

	mu sync.Mutex // serializes Send against concurrent writes

	stopOnce sync.Once
	stopped  chan struct{}
	closed   chan struct{} // closed when readLoop returns, for any reason

	scratch []byte // reused frame buffer, carved from a pool's rx arena; nil means allocate per frame
}

// NewStreamPipe wraps rwc in a size-prefixed-framing Transport that
// allocates a fresh buffer for every incoming frame.
func NewStreamPipe(rwc io.ReadWriteCloser) *StreamPipe {
	return &StreamPipe{rwc: rwc, stopped: make(chan struct{}), closed: make(chan struct{})}
}

// NewStreamPipeBuffered wraps rwc the same way NewStreamPipe does, but
// reads every frame into scratch instead of allocating one, so a pool
// can carve a fixed per-session receive buffer out of one preallocated
// arena (spec.md section 4.G) instead of growing the heap per message.
// A frame larger than len(scratch) ends the read loop, and with it the
// connection.
func NewStreamPipeBuffered(rwc io.ReadWriteCloser, scratch []byte) *StreamPipe {
	return &StreamPipe{rwc: rwc, stopped: make(chan struct{}), closed: make(chan struct{}), scratch: scratch}
}

// Done returns a channel that closes once the read loop has exited,
// whether because Stop was called or the underlying connection
// failed/reached EOF on its own. A pool uses this to notice a peer
// disconnecting without having called Stop itself.
func (p *StreamPipe) Done() <-chan struct{} { return p.closed }

// Send writes frame to the underlying connection. The frame already
// contains its own size[4] prefix (wire.Encode* always produces one),
// so Send is a single, un-framed write.
func (p *StreamPipe) Send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.rwc.Write(frame)
	return err
}

// Start reads size-prefixed 9P messages from the underlying
// connection on a dedicated goroutine, calling recv once per complete
// message, until Stop is called or a read fails.
func (p *StreamPipe) Start(recv func(frame []byte)) error {
	go p.readLoop(recv)
	return nil
}

func (p *StreamPipe) readLoop(recv func(frame []byte)) {
	defer close(p.closed)
	br := bufio.NewReader(p.rwc)
	var hdr [4]byte
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			return
		}
		size := binary.LittleEndian.Uint32(hdr[:])
		if size < 4 {
			return
		}
		var frame []byte
		if p.scratch != nil {
			if int(size) > len(p.scratch) {
				return
			}
			frame = p.scratch[:size]
		} else {
			frame = make([]byte, size)
		}
		copy(frame, hdr[:])
		if _, err := io.ReadFull(br, frame[4:]); err != nil {
			return
		}
		select {
		case <-p.stopped:
			return
		default:
		}
		recv(frame)
	}
}

// Stop closes the underlying connection, unblocking any in-progress
// read and causing the read loop to exit.
func (p *StreamPipe) Stop() error {
	p.stopOnce.Do(func() { close(p.stopped) })
	return p.rwc.Close()
}

// MTU reports 0: stream transports have no fragmentation limit of
// their own, only the negotiated msize bounds message size.
func (p *StreamPipe) MTU() int { return 0 }
