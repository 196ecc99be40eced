package session_test

import (
	"errors"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// fakeNode is a minimal in-memory tree used to exercise the session
// state machine without pulling in the reference ramfs backend.
type fakeNode struct {
	name     string
	dir      bool
	path     uint64
	version  uint32
	data     []byte
	children []*fakeNode
	open     bool
}

func (n *fakeNode) qid() wire.Qid {
	var buf [wire.QidLen]byte
	typ := uint8(0)
	if n.dir {
		typ = wire.QTDIR
	}
	q, _ := wire.NewQid(buf[:], typ, n.version, n.path)
	return append(wire.Qid(nil), q...)
}

// fakeFS implements fs.FS over fakeNode.
type fakeFS struct {
	root     *fakeNode
	nextPath uint64
}

func newFakeFS() *fakeFS {
	root := &fakeNode{name: "/", dir: true, path: 0}
	greet := &fakeNode{name: "greeting", path: 1, data: []byte("hello, 9p")}
	sub := &fakeNode{name: "sub", dir: true, path: 2}
	deep := &fakeNode{name: "deep.txt", path: 3, data: []byte("nested")}
	sub.children = append(sub.children, deep)
	root.children = append(root.children, greet, sub)
	return &fakeFS{root: root, nextPath: 4}
}

func (f *fakeFS) Root() (fs.Handle, wire.Qid, error) {
	return f.root, f.root.qid(), nil
}

func (f *fakeFS) Walk(from fs.Handle, name string) (fs.Handle, wire.Qid, error) {
	node := from.(*fakeNode)
	if name == ".." {
		return f.root, f.root.qid(), nil
	}
	if !node.dir {
		return nil, nil, fs.NewError(fs.KindNotDir, "")
	}
	for _, c := range node.children {
		if c.name == name {
			return c, c.qid(), nil
		}
	}
	return nil, nil, fs.NewError(fs.KindNotFound, name)
}

func (f *fakeFS) Open(node fs.Handle, flags fs.OpenFlags) error {
	n := node.(*fakeNode)
	if n.dir && wire.Mode(flags.Mode) != wire.OREAD {
		return fs.NewError(fs.KindIsDir, "")
	}
	if flags.Truncate {
		n.data = nil
	}
	n.open = true
	return nil
}

func (f *fakeFS) Create(parent fs.Handle, name string, perm uint32, flags fs.OpenFlags) (fs.Handle, wire.Qid, error) {
	p := parent.(*fakeNode)
	if !p.dir {
		return nil, nil, fs.NewError(fs.KindNotDir, "")
	}
	for _, c := range p.children {
		if c.name == name {
			return nil, nil, fs.NewError(fs.KindExists, "")
		}
	}
	child := &fakeNode{name: name, path: f.nextPath, open: true}
	f.nextPath++
	p.children = append(p.children, child)
	return child, child.qid(), nil
}

func (f *fakeFS) Read(node fs.Handle, offset uint64, buf []byte) (int, error) {
	n := node.(*fakeNode)
	if n.dir {
		return f.readDir(n, offset, buf)
	}
	if offset >= uint64(len(n.data)) {
		return 0, nil
	}
	k := copy(buf, n.data[offset:])
	return k, nil
}

func (f *fakeFS) readDir(n *fakeNode, offset uint64, buf []byte) (int, error) {
	var all []byte
	for _, c := range n.children {
		all = wire.EncodeStat(all, c.qid(), 0644, 0, 0, uint64(len(c.data)), c.name, "nobody", "nobody", "nobody")
	}
	if offset >= uint64(len(all)) {
		return 0, nil
	}
	remaining := all[offset:]
	if len(remaining) <= len(buf) {
		return copy(buf, remaining), nil
	}
	// Never split a stat record across the buffer boundary: walk
	// record-by-record until the next one would overflow.
	var n2 int
	for n2 < len(remaining) {
		recLen := int(uint16(remaining[n2]) | uint16(remaining[n2+1])<<8)
		if n2+2+recLen > len(buf) {
			break
		}
		n2 += 2 + recLen
	}
	return copy(buf, remaining[:n2]), nil
}

func (f *fakeFS) Write(node fs.Handle, offset uint64, data []byte) (int, error) {
	n := node.(*fakeNode)
	if n.dir {
		return 0, fs.NewError(fs.KindIsDir, "")
	}
	end := offset + uint64(len(data))
	if end > uint64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], data)
	return len(data), nil
}

func (f *fakeFS) Clunk(node fs.Handle) error {
	n := node.(*fakeNode)
	n.open = false
	return nil
}

func (f *fakeFS) Remove(node fs.Handle) error {
	n, ok := node.(*fakeNode)
	if !ok {
		return errors.New("bad handle")
	}
	if n == f.root {
		return fs.NewError(fs.KindDenied, "cannot remove root")
	}
	return nil
}

func (f *fakeFS) Stat(node fs.Handle) (wire.Stat, error) {
	n := node.(*fakeNode)
	var buf []byte
	buf = wire.EncodeStat(buf, n.qid(), 0644, 0, 0, uint64(len(n.data)), n.name, "nobody", "nobody", "nobody")
	return wire.Stat(buf), nil
}

func (f *fakeFS) Wstat(node fs.Handle, stat wire.Stat) error {
	n := node.(*fakeNode)
	if !wire.IsDontTouch(stat.Name()) {
		n.name = string(stat.Name())
	}
	return nil
}
