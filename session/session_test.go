package session_test

import (
	"bytes"
	"testing"

	"github.com/jrsharp/9p4z-sub001/config"
	"github.com/jrsharp/9p4z-sub001/session"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func newTestSession() (*session.Session, *fakeFS) {
	cfg := config.Default()
	backend := newFakeFS()
	return session.New(cfg, backend, nil, nil), backend
}

func decodeReply(t *testing.T, reply []byte) wire.Msg {
	t.Helper()
	m, err := wire.Decode(reply, 0)
	if err != nil {
		t.Fatalf("reply did not decode: %v (% x)", err, reply)
	}
	return m
}

func mustVersion(t *testing.T, s *session.Session) uint32 {
	t.Helper()
	req := wire.EncodeTversion(nil, wire.NoTag, 4096, "9P2000")
	reply := s.Handle(req)
	m := decodeReply(t, reply)
	rv, ok := m.(wire.RversionMsg)
	if !ok {
		t.Fatalf("expected Rversion, got %T", m)
	}
	if string(rv.Version()) != "9P2000" {
		t.Fatalf("got version %q", rv.Version())
	}
	return rv.Msize()
}

func mustAttach(t *testing.T, s *session.Session, fid uint32) wire.Qid {
	t.Helper()
	req := wire.EncodeTattach(nil, 1, fid, wire.NoFid, "glenda", "")
	reply := s.Handle(req)
	m := decodeReply(t, reply)
	ra, ok := m.(wire.RattachMsg)
	if !ok {
		t.Fatalf("expected Rattach, got %T: %s", m, rerrorText(m))
	}
	return ra.Qid()
}

func rerrorText(m wire.Msg) string {
	if re, ok := m.(wire.RerrorMsg); ok {
		return string(re.Ename())
	}
	return ""
}

func TestVersionThenAttach(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	qid := mustAttach(t, s, 0)
	if qid.Type()&wire.QTDIR == 0 {
		t.Fatal("expected root qid to be a directory")
	}
}

func TestMessageBeforeVersionIsRejected(t *testing.T) {
	s, _ := newTestSession()
	req := wire.EncodeTattach(nil, 1, 0, wire.NoFid, "glenda", "")
	reply := s.Handle(req)
	m := decodeReply(t, reply)
	re, ok := m.(wire.RerrorMsg)
	if !ok {
		t.Fatalf("expected Rerror, got %T", m)
	}
	if string(re.Ename()) != "version not negotiated" {
		t.Fatalf("got %q", re.Ename())
	}
}

func TestWalkOpenReadFile(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	walkReq := wire.EncodeTwalk(nil, 2, 0, 1, []string{"greeting"})
	reply := s.Handle(walkReq)
	m := decodeReply(t, reply)
	rw, ok := m.(wire.RwalkMsg)
	if !ok {
		t.Fatalf("expected Rwalk, got %T: %s", m, rerrorText(m))
	}
	if rw.Nwqid() != 1 {
		t.Fatalf("expected 1 qid, got %d", rw.Nwqid())
	}

	openReq := wire.EncodeTopen(nil, 3, 1, wire.OREAD)
	reply = s.Handle(openReq)
	if _, ok := decodeReply(t, reply).(wire.RopenMsg); !ok {
		t.Fatalf("expected Ropen, got %v", rerrorText(decodeReply(t, reply)))
	}

	readReq := wire.EncodeTread(nil, 4, 1, 0, 64)
	reply = s.Handle(readReq)
	rr, ok := decodeReply(t, reply).(wire.RreadMsg)
	if !ok {
		t.Fatalf("expected Rread, got %v", rerrorText(decodeReply(t, reply)))
	}
	if !bytes.Equal(rr.Data(), []byte("hello, 9p")) {
		t.Fatalf("got %q", rr.Data())
	}
}

func TestWalkPartialFailureLeavesNewfidUnbound(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	walkReq := wire.EncodeTwalk(nil, 2, 0, 1, []string{"sub", "missing", "deep.txt"})
	reply := s.Handle(walkReq)
	rw, ok := decodeReply(t, reply).(wire.RwalkMsg)
	if !ok {
		t.Fatalf("expected Rwalk (partial), got %T: %s", decodeReply(t, reply), rerrorText(decodeReply(t, reply)))
	}
	if rw.Nwqid() != 1 {
		t.Fatalf("expected 1 successful component, got %d", rw.Nwqid())
	}

	// newfid 1 must remain unbound: Tclunk on it should fail.
	reply = s.Handle(wire.EncodeTclunk(nil, 3, 1))
	if _, ok := decodeReply(t, reply).(wire.RerrorMsg); !ok {
		t.Fatal("expected newfid to be unbound after a partial walk")
	}
}

func TestWalkFirstComponentNotFound(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	reply := s.Handle(wire.EncodeTwalk(nil, 2, 0, 1, []string{"nope"}))
	re, ok := decodeReply(t, reply).(wire.RerrorMsg)
	if !ok {
		t.Fatalf("expected Rerror, got %T", decodeReply(t, reply))
	}
	if string(re.Ename()) != "file does not exist" {
		t.Fatalf("got %q", re.Ename())
	}
}

func TestDuplicateFidOnAttach(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	reply := s.Handle(wire.EncodeTattach(nil, 2, 0, wire.NoFid, "glenda", ""))
	re, ok := decodeReply(t, reply).(wire.RerrorMsg)
	if !ok {
		t.Fatalf("expected Rerror, got %T", decodeReply(t, reply))
	}
	if string(re.Ename()) != "fid in use" {
		t.Fatalf("got %q", re.Ename())
	}
}

func TestFlushIsAlwaysImmediateNoOp(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	reply := s.Handle(wire.EncodeTflush(nil, 5, 1234))
	if _, ok := decodeReply(t, reply).(wire.RflushMsg); !ok {
		t.Fatalf("expected Rflush, got %T", decodeReply(t, reply))
	}
}

func TestClunkAlwaysFreesFid(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	reply := s.Handle(wire.EncodeTclunk(nil, 6, 0))
	if _, ok := decodeReply(t, reply).(wire.RclunkMsg); !ok {
		t.Fatalf("expected Rclunk, got %T", decodeReply(t, reply))
	}
	// fid 0 is gone now; a second clunk must fail.
	reply = s.Handle(wire.EncodeTclunk(nil, 7, 0))
	if _, ok := decodeReply(t, reply).(wire.RerrorMsg); !ok {
		t.Fatal("expected Rerror clunking an already-freed fid")
	}
}

func TestLaterTversionResetsSession(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)

	mustVersion(t, s)
	// fid 0 no longer bound after the reset.
	reply := s.Handle(wire.EncodeTclunk(nil, 9, 0))
	if _, ok := decodeReply(t, reply).(wire.RerrorMsg); !ok {
		t.Fatal("expected fid table to be reset by a later Tversion")
	}
}

func TestDirectoryReadRequiresBoundaryOffset(t *testing.T) {
	s, _ := newTestSession()
	mustVersion(t, s)
	mustAttach(t, s, 0)
	s.Handle(wire.EncodeTopen(nil, 2, 0, wire.OREAD))

	reply := s.Handle(wire.EncodeTread(nil, 3, 0, 7, 4096))
	if _, ok := decodeReply(t, reply).(wire.RerrorMsg); !ok {
		t.Fatal("expected bad directory offset error")
	}
}
