package session

import (
	"github.com/jrsharp/9p4z-sub001/fid"
	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

func openFlags(mode uint8) fs.OpenFlags {
	return fs.OpenFlags{
		Mode:        wire.Mode(mode),
		Truncate:    mode&wire.OTRUNC != 0,
		RemoveClose: mode&wire.ORCLOSE != 0,
	}
}

func (s *Session) handleOpen(m wire.TopenMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	if entry.Open() {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindAlreadyOpen, "")))
	}

	flags := openFlags(m.Mode())
	if err := s.backend.Open(entry.Handle, flags); err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}

	entry.Mode = m.Mode()
	entry.Offset = 0
	entry.Flags = fidFlagsFor(flags)
	return wire.EncodeRopen(nil, m.Tag(), wire.Qid(entry.Qid), s.iounit())
}

func (s *Session) handleCreate(m wire.TcreateMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	if entry.Open() {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindAlreadyOpen, "")))
	}
	if wire.Qid(entry.Qid).Type()&wire.QTDIR == 0 {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindNotDir, "")))
	}
	name := string(m.Name())
	if !validWalkName(name) {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindBadName, "")))
	}

	flags := openFlags(m.Mode())
	node, qid, err := s.backend.Create(entry.Handle, name, m.Perm(), flags)
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}

	entry.Qid = append([]byte(nil), qid...)
	entry.Handle = node
	entry.Mode = m.Mode()
	entry.Offset = 0
	entry.Flags = fidFlagsFor(flags)
	return wire.EncodeRcreate(nil, m.Tag(), qid, s.iounit())
}

func fidFlagsFor(flags fs.OpenFlags) int {
	f := fid.FlagOpen
	if flags.Truncate {
		f |= fid.FlagTrunc
	}
	if flags.RemoveClose {
		f |= fid.FlagRclose
	}
	return f
}

func (s *Session) handleRead(m wire.TreadMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	if !entry.Open() {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindBadOpenMode, "")))
	}

	count := m.Count()
	if max := s.msize - 11; count > max {
		count = max
	}
	if iou := s.iounit(); count > iou {
		count = iou
	}

	isDir := wire.Qid(entry.Qid).Type()&wire.QTDIR != 0
	offset := m.Offset()
	if isDir {
		if offset == 0 {
			entry.Offset = 0
		} else if offset != entry.Offset {
			return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindBadDirOffset, "")))
		}
	}

	buf := make([]byte, count)
	n, err := s.backend.Read(entry.Handle, offset, buf)
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}
	if isDir {
		entry.Offset += uint64(n)
	}
	return wire.EncodeRread(nil, m.Tag(), buf[:n])
}

func (s *Session) handleWrite(m wire.TwriteMsg) []byte {
	entry, err := s.fids.Lookup(m.Fid())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(mapFidErr(err)))
	}
	if !entry.Open() {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindBadOpenMode, "")))
	}
	if wire.Qid(entry.Qid).Type()&wire.QTDIR != 0 {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(fs.NewError(fs.KindIsDir, "")))
	}

	n, err := s.backend.Write(entry.Handle, m.Offset(), m.Data())
	if err != nil {
		return wire.EncodeRerror(nil, m.Tag(), fs.WireMessage(backendErr(err)))
	}
	return wire.EncodeRwrite(nil, m.Tag(), uint32(n))
}
