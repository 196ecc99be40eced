// Package session implements the per-connection 9P2000 state machine
// (spec.md section 4.E): version negotiation, attach, and serial
// request dispatch against a fid table, a tag table and an fs.FS
// backend. It plays the role serve.go's handleMessage switch plays
// for styx, adapted from that callback-per-Request model to a direct
// "one frame in, one reply frame out" call a pool can drive without
// spinning up a Handler pipeline per connection.
package session

import (
	"strings"

	"github.com/jrsharp/9p4z-sub001/config"
	"github.com/jrsharp/9p4z-sub001/fid"
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/tag"
	"github.com/jrsharp/9p4z-sub001/transport"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// Logger receives diagnostic information during a session's operation.
// It is implemented by *log.Logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// State is one of the four states a session moves through, per
// spec.md section 4.E.
type State int

const (
	// AwaitingVersion is the initial state: only Tversion is accepted,
	// every other message is BadVersionOrder.
	AwaitingVersion State = iota
	// AwaitingAttach follows a successful Tversion: Tattach is now
	// meaningful, though any other message is still accepted (it will
	// simply fail with UnknownFid, since no fid has been bound yet).
	AwaitingAttach
	// Serving is entered on the first successful Tattach.
	Serving
	// Closing means the session has been torn down; Handle on a
	// Closing session always fails.
	Closing
)

// A Session holds all per-connection state for one 9P2000 peer: its
// negotiated msize and version, its fid and tag tables, and the
// backend and transport it drives. The zero Session is not usable;
// create one with New.
type Session struct {
	cfg       config.Config
	backend   fs.FS
	transport transport.Transport
	logger    Logger

	fids *fid.Table
	tags *tag.Table

	state   State
	msize   uint32
	version string

	nextAuthPath uint64
}

// New creates a Session bound to backend and driven by tr. logger may
// be nil, in which case diagnostics are discarded.
func New(cfg config.Config, backend fs.FS, tr transport.Transport, logger Logger) *Session {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Session{
		cfg:       cfg,
		backend:   backend,
		transport: tr,
		logger:    logger,
		fids:      fid.New(cfg.MaxFids),
		tags:      tag.New(cfg.MaxTags),
		state:     AwaitingVersion,
	}
}

// Serve starts the session's transport, routing every received frame
// through Handle and sending back whatever reply it produces.
func (s *Session) Serve() error {
	return s.transport.Start(s.onFrame)
}

func (s *Session) onFrame(frame []byte) {
	reply := s.Handle(frame)
	if reply == nil {
		return
	}
	if err := s.transport.Send(reply); err != nil {
		s.logger.Printf("session: send failed: %v", err)
	}
}

// Close tears the session down: every open fid is clunked against the
// backend, the transport is stopped, and the session is marked
// Closing. Handle on a closed session always returns a Rerror.
func (s *Session) Close() error {
	s.clunkAllFids()
	s.fids.Reset()
	s.tags.Reset()
	s.state = Closing
	return s.transport.Stop()
}

// Handle runs exactly one request to completion and returns the reply
// frame, or nil if frame is too short to carry a tag, in which case
// there is no request to answer and the frame is dropped. Handle never blocks and never calls back into
// the transport; it is safe to call directly in tests without a real
// Transport.
func (s *Session) Handle(frame []byte) []byte {
	if s.state == Closing {
		return wire.EncodeRerror(nil, wire.NoTag, fs.WireMessage(fs.NewError(fs.KindBadVersionOrder, "session closed")))
	}

	msizeCap := s.msize
	if msizeCap == 0 {
		msizeCap = s.cfg.MaxMessageSize
	}

	m, err := wire.Decode(frame, msizeCap)
	if err != nil {
		if len(frame) < wire.HeaderLen {
			// No tag to correlate a reply with: drop the frame.
			return nil
		}
		return wire.EncodeRerror(nil, bestEffortTag(frame), fs.WireMessage(mapDecodeErr(err)))
	}

	tg := m.Tag()
	if tg != wire.NoTag {
		if err := s.tags.Add(tg); err != nil {
			return wire.EncodeRerror(nil, tg, fs.WireMessage(fs.NewError(fs.KindNoTags, "")))
		}
		defer s.tags.Free(tg)
	}

	if s.state == AwaitingVersion {
		if _, ok := m.(wire.TversionMsg); !ok {
			return wire.EncodeRerror(nil, tg, fs.WireMessage(fs.NewError(fs.KindBadVersionOrder, "")))
		}
	}

	switch msg := m.(type) {
	case wire.TversionMsg:
		return s.handleVersion(msg)
	case wire.TauthMsg:
		return s.handleAuth(msg)
	case wire.TattachMsg:
		return s.handleAttach(msg)
	case wire.TflushMsg:
		return s.handleFlush(msg)
	case wire.TwalkMsg:
		return s.handleWalk(msg)
	case wire.TopenMsg:
		return s.handleOpen(msg)
	case wire.TcreateMsg:
		return s.handleCreate(msg)
	case wire.TreadMsg:
		return s.handleRead(msg)
	case wire.TwriteMsg:
		return s.handleWrite(msg)
	case wire.TclunkMsg:
		return s.handleClunk(msg)
	case wire.TremoveMsg:
		return s.handleRemove(msg)
	case wire.TstatMsg:
		return s.handleStat(msg)
	case wire.TwstatMsg:
		return s.handleWstat(msg)
	default:
		return wire.EncodeRerror(nil, tg, fs.WireMessage(fs.NewError(fs.KindUnknownType, "")))
	}
}

func (s *Session) handleVersion(m wire.TversionMsg) []byte {
	msize, ok := s.cfg.NegotiateMsize(m.Msize())
	if !ok {
		return wire.EncodeRerror(nil, wire.NoTag, fs.WireMessage(fs.NewError(fs.KindMalformedMessage, "msize too small")))
	}

	// Tversion is valid in any state and always resets the session:
	// every fid is clunked against the backend, and the tag table is
	// cleared (spec.md section 4.E).
	s.clunkAllFids()
	s.fids.Reset()
	s.tags.Reset()
	s.msize = msize

	if !strings.HasPrefix(string(m.Version()), config.DefaultVersion) {
		s.state = AwaitingVersion
		return wire.EncodeRversion(nil, wire.NoTag, msize, "unknown")
	}

	s.version = s.cfg.VersionString
	s.state = AwaitingAttach
	return wire.EncodeRversion(nil, wire.NoTag, msize, s.cfg.VersionString)
}

func (s *Session) handleAuth(m wire.TauthMsg) []byte {
	if !s.cfg.AuthRequired {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindAuthNotRequired, "")))
	}
	entry, err := s.fids.Alloc(m.Afid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	s.nextAuthPath++
	var qbuf [wire.QidLen]byte
	qid, _ := wire.NewQid(qbuf[:], wire.QTAUTH, 0, s.nextAuthPath)
	entry.Qid = append([]byte(nil), qid...)
	entry.Handle = authHandle{}
	return wire.EncodeRauth(nil, m.Tag(), qid)
}

// authHandle marks a fid bound by Tauth; the backend is never
// consulted for it; reading/writing the authentication exchange
// itself is backend-specific and out of this state machine's scope.
type authHandle struct{}

func (s *Session) handleFlush(m wire.TflushMsg) []byte {
	// Dispatch is strictly serial: by the time a Tflush reaches Handle,
	// the request it names (if any) has either already completed or
	// never existed on this session. Rflush is therefore always an
	// immediate, unconditional success (spec.md section 4.E).
	return wire.EncodeRflush(nil, m.Tag())
}

func (s *Session) clunkAllFids() {
	s.fids.Each(func(_ uint32, e *fid.Entry) {
		if _, ok := e.Handle.(authHandle); ok {
			return
		}
		if e.Handle == nil {
			return
		}
		if err := s.backend.Clunk(e.Handle); err != nil {
			s.logger.Printf("session: clunk during reset failed: %v", err)
		}
	})
}

// bestEffortTag extracts a tag from a frame that failed to decode, so
// the Rerror reply can still be matched against the right request. It
// returns wire.NoTag if the frame is too short to contain one.
func bestEffortTag(frame []byte) uint16 {
	if len(frame) < wire.HeaderLen {
		return wire.NoTag
	}
	h, err := wire.ParseHeader(frame, 0)
	if err != nil {
		if len(frame) >= wire.HeaderLen {
			return uint16(frame[5]) | uint16(frame[6])<<8
		}
		return wire.NoTag
	}
	return h.Tag
}

func mapDecodeErr(err error) *fs.Error {
	switch err {
	case wire.ErrUnknownType:
		return fs.NewError(fs.KindUnknownType, "")
	case wire.ErrWalkTooLong:
		return fs.NewError(fs.KindWalkTooLong, "")
	default:
		return fs.NewError(fs.KindMalformedMessage, "")
	}
}

func mapFidErr(err error) *fs.Error {
	switch err {
	case fid.ErrInUse:
		return fs.NewError(fs.KindFidInUse, "")
	case fid.ErrNoFids:
		return fs.NewError(fs.KindNoFids, "")
	case fid.ErrUnknown:
		return fs.NewError(fs.KindUnknownFid, "")
	default:
		return fs.NewError(fs.KindUnknownFid, "")
	}
}

// ioHeaderOverhead is the standard 9P IOHDRSZ: the 23 non-payload
// bytes of a Twrite (size[4] type[1] tag[2] fid[4] offset[8]
// count[4]) rounded up to 24.
const ioHeaderOverhead = 24

// iounit returns the advisory largest atomic read/write size this
// session will hand a client, derived from the negotiated msize.
func (s *Session) iounit() uint32 {
	if s.msize <= ioHeaderOverhead {
		return 0
	}
	return s.msize - ioHeaderOverhead
}

func backendErr(err error) *fs.Error {
	if fe, ok := err.(*fs.Error); ok {
		return fe
	}
	return &fs.Error{Detail: err.Error()} // unknown kind: "i/o error" on the wire
}
