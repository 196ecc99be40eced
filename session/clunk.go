package session

import (
	"github.com/jrsharp/9p4z-sub001/fid"
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func (s *Session) handleClunk(m wire.TclunkMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}

	if _, isAuth := entry.Handle.(authHandle); !isAuth && entry.Handle != nil {
		if err := s.backend.Clunk(entry.Handle); err != nil {
			s.logger.Printf("session: clunk fid %d: %v", m.Fid(), err)
		}
		if entry.Flags&fid.FlagRclose != 0 {
			if err := s.backend.Remove(entry.Handle); err != nil {
				// Rclunk carries no error field on the wire, so a
				// remove-on-close failure can only be logged, never
				// reported back to the client.
				s.logger.Printf("session: remove-on-close fid %d: %v", m.Fid(), err)
			}
		}
	}

	// A fid is always removed from the table, regardless of what the
	// backend reported (spec.md section 4.E).
	s.fids.Free(m.Fid())
	return wire.EncodeRclunk(nil, m.Tag())
}

func (s *Session) handleRemove(m wire.TremoveMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}

	removeErr := s.backend.Remove(entry.Handle)
	// Tremove always frees the fid, whether or not the backend actually
	// removed the node (spec.md section 4.E).
	s.fids.Free(m.Fid())
	if removeErr != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(removeErr)))
	}
	return wire.EncodeRremove(nil, m.Tag())
}
