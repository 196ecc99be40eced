package session

import (
	"strings"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func (s *Session) handleWalk(m wire.TwalkMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}

	newfid := m.Newfid()
	if newfid != m.Fid() {
		if _, err := s.fids.Lookup(newfid); err == nil {
			return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindFidInUse, "")))
		}
	}

	n := m.Nwname()
	qids := make([]wire.Qid, 0, n)
	cur := entry.Handle
	curQid := entry.Qid

	for i := 0; i < n; i++ {
		name := string(m.Wname(i))
		if !validWalkName(name) {
			if i == 0 {
				return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindBadName, "")))
			}
			break
		}
		child, qid, walkErr := s.backend.Walk(cur, name)
		if walkErr != nil {
			if i == 0 {
				return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(walkErr)))
			}
			break
		}
		qids = append(qids, qid)
		cur = child
		curQid = qid
	}

	if len(qids) != n {
		// A component past the first failed: report what succeeded and
		// leave newfid unbound, per spec.md section 4.E.
		return wire.EncodeRwalk(nil, m.Tag(), qids)
	}

	if newfid == m.Fid() {
		entry.Qid = append([]byte(nil), curQid...)
		entry.Handle = cur
	} else {
		newEntry, allocErr := s.fids.Alloc(newfid)
		if allocErr != nil {
			return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(allocErr)))
		}
		newEntry.Qid = append([]byte(nil), curQid...)
		newEntry.Handle = cur
	}
	return wire.EncodeRwalk(nil, m.Tag(), qids)
}

func validWalkName(name string) bool {
	return name != "" && !strings.ContainsRune(name, '/')
}
