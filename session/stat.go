package session

import (
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func (s *Session) handleStat(m wire.TstatMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	st, err := s.backend.Stat(entry.Handle)
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}
	return wire.EncodeRstat(nil, m.Tag(), st)
}

func (s *Session) handleWstat(m wire.TwstatMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	if err := s.backend.Wstat(entry.Handle, m.Stat()); err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}
	return wire.EncodeRwstat(nil, m.Tag())
}
