package session

import (
	"strings"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func (s *Session) handleAttach(m wire.TattachMsg) []byte {
	entry, err := s.fids.Alloc(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}

	node, qid, err := s.backend.Root()
	if err != nil {
		s.fids.Free(m.Fid())
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}

	if aname := string(m.Aname()); aname != "" {
		for _, name := range strings.Split(strings.Trim(aname, "/"), "/") {
			if name == "" {
				continue
			}
			var walkErr error
			node, qid, walkErr = s.backend.Walk(node, name)
			if walkErr != nil {
				s.fids.Free(m.Fid())
				return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(walkErr)))
			}
		}
	}

	entry.Qid = append([]byte(nil), qid...)
	entry.Handle = node
	s.state = Serving
	return wire.EncodeRattach(nil, m.Tag(), qid)
}
