package pool_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsharp/9p4z-sub001/config"
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/pool"
	"github.com/jrsharp/9p4z-sub001/transport"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// fakeRootFS is a single-directory backend, just enough to exercise
// attach/walk/clunk through a real pool-served connection.
type fakeRootFS struct{ nextPath uint64 }

type fakeNode struct {
	path uint64
	dir  bool
}

func (n *fakeNode) qid() wire.Qid {
	var buf [wire.QidLen]byte
	typ := uint8(0)
	if n.dir {
		typ = wire.QTDIR
	}
	q, _ := wire.NewQid(buf[:], typ, 0, n.path)
	return append(wire.Qid(nil), q...)
}

func (f *fakeRootFS) Root() (fs.Handle, wire.Qid, error) {
	root := &fakeNode{path: 0, dir: true}
	return root, root.qid(), nil
}
func (f *fakeRootFS) Walk(from fs.Handle, name string) (fs.Handle, wire.Qid, error) {
	return nil, nil, fs.NewError(fs.KindNotFound, name)
}
func (f *fakeRootFS) Open(node fs.Handle, flags fs.OpenFlags) error { return nil }
func (f *fakeRootFS) Create(parent fs.Handle, name string, perm uint32, flags fs.OpenFlags) (fs.Handle, wire.Qid, error) {
	f.nextPath++
	n := &fakeNode{path: f.nextPath}
	return n, n.qid(), nil
}
func (f *fakeRootFS) Read(node fs.Handle, offset uint64, buf []byte) (int, error)  { return 0, nil }
func (f *fakeRootFS) Write(node fs.Handle, offset uint64, data []byte) (int, error) { return len(data), nil }
func (f *fakeRootFS) Clunk(node fs.Handle) error                                    { return nil }
func (f *fakeRootFS) Remove(node fs.Handle) error                                   { return nil }
func (f *fakeRootFS) Stat(node fs.Handle) (wire.Stat, error)                        { return nil, nil }
func (f *fakeRootFS) Wstat(node fs.Handle, stat wire.Stat) error                    { return nil }

func dialAndAttach(t *testing.T, l *transport.PipeListener, fid uint32) (*transport.StreamPipe, func(reqTag uint16, req []byte) wire.Msg) {
	t.Helper()
	conn, err := l.Dial()
	require.NoError(t, err)
	tr := transport.NewStreamPipe(conn)

	replies := make(chan []byte, 8)
	require.NoError(t, tr.Start(func(frame []byte) { replies <- append([]byte(nil), frame...) }))

	send := func(reqTag uint16, req []byte) wire.Msg {
		require.NoError(t, tr.Send(req))
		select {
		case reply := <-replies:
			m, err := wire.Decode(reply, 0)
			require.NoError(t, err)
			return m
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for reply")
			return nil
		}
	}

	_ = send(wire.NoTag, wire.EncodeTversion(nil, wire.NoTag, 4096, "9P2000"))
	m := send(1, wire.EncodeTattach(nil, 1, fid, wire.NoFid, "glenda", ""))
	_, ok := m.(wire.RattachMsg)
	require.True(t, ok, "expected Rattach")

	return tr, send
}

func TestPoolServesIsolatedSessions(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSessions = 2
	backend := &fakeRootFS{}
	p := pool.New(cfg, backend, nil)

	l := &transport.PipeListener{}
	defer l.Close()
	go p.Serve(l)

	trA, sendA := dialAndAttach(t, l, 0)
	defer trA.Stop()
	trB, sendB := dialAndAttach(t, l, 0)
	defer trB.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.Count(pool.Connected) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 2, p.Count(pool.Connected), "both sessions should be connected")

	// A zero-length Twalk is a pure fid duplication, always successful
	// regardless of the backend; binding fid 9 on session A this way
	// must not make fid 9 visible on session B: each session owns its
	// own fid table.
	replyA := sendA(2, wire.EncodeTwalk(nil, 2, 0, 9, nil))
	_, aOK := replyA.(wire.RwalkMsg)
	require.True(t, aOK, "expected Rwalk duplicating fid 0 onto fid 9 on session A")

	replyB := sendB(2, wire.EncodeTclunk(nil, 2, 9))
	_, bFailed := replyB.(wire.RerrorMsg)
	require.True(t, bFailed, "fid 9 exists on session A only; clunking it on session B must fail")
}

func TestPoolCapacityGating(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSessions = 1
	backend := &fakeRootFS{}
	p := pool.New(cfg, backend, nil)

	l := &transport.PipeListener{}
	defer l.Close()
	go p.Serve(l)

	tr, _ := dialAndAttach(t, l, 0)

	deadline := time.Now().Add(2 * time.Second)
	for p.Count(pool.Connected) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, p.Count(pool.Connected))

	// A second connection cannot be served while the pool is at
	// capacity; its accept goroutine blocks on the semaphore.
	conn2, err := l.Dial()
	require.NoError(t, err)
	defer conn2.Close()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, p.Count(pool.Allocated), "second connection must not claim a slot while the pool is full")
	require.Equal(t, 1, p.Count(pool.Connected), "the original session should be unaffected by a pending second connection")

	tr.Stop()
}
