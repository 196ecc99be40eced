// Package ramfs is the reference in-memory fs.FS backend (spec.md
// section 4.H): an arena of nodes connected by parent/children
// pointers, qids handed out from a monotonic counter the way
// droyo-styx's internal/qidpool does, and a single mutex guarding the
// whole tree the way internal/threadsafe.Map guards its map — simpler
// than per-node locking, and sufficient for the tree sizes this
// framework targets.
package ramfs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// DMDIR marks a stat mode as a directory, mirroring the high bit
// Plan 9 reserves in a Dir's mode word (spec.md section 4.A). DMAPPEND
// marks a file append-only: every Write ignores its offset and
// appends instead.
const (
	DMDIR    uint32 = 0x80000000
	DMAPPEND uint32 = 0x40000000
)

type node struct {
	name    string
	dir     bool
	mode    uint32
	path    uint64
	version uint32
	atime   uint32
	mtime   uint32
	data    []byte
	parent  *node
	children []*node
	uid, gid, muid string
}

func (n *node) qid() wire.Qid {
	var buf [wire.QidLen]byte
	var typ uint8
	if n.dir {
		typ |= wire.QTDIR
	}
	if n.mode&DMAPPEND != 0 {
		typ |= wire.QTAPPEND
	}
	q, _ := wire.NewQid(buf[:], typ, n.version, n.path)
	return append(wire.Qid(nil), q...)
}

func (n *node) touch() {
	n.mtime = uint32(time.Now().Unix())
	n.version++
}

// FS is the reference backend: a single tree rooted at Root, entirely
// held in memory. The zero FS is not usable; create one with New.
type FS struct {
	mu       sync.Mutex
	root     *node
	nextPath uint64
	owner    string
}

// New returns an FS with an empty root directory, owned by owner
// (used to populate uid/gid/muid on every node created henceforth).
func New(owner string) *FS {
	if owner == "" {
		owner = "root"
	}
	f := &FS{owner: owner}
	f.root = &node{name: "/", dir: true, mode: DMDIR | 0755, uid: owner, gid: owner, muid: owner}
	f.root.mtime = uint32(time.Now().Unix())
	return f
}

func (f *FS) allocPath() uint64 {
	return atomic.AddUint64(&f.nextPath, 1)
}

// Root returns the tree's root node and its qid.
func (f *FS) Root() (fs.Handle, wire.Qid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root, f.root.qid(), nil
}

// Walk returns the child of from named name. ".." from the root
// returns the root; walking a name that does not exist is NotFound.
func (f *FS) Walk(from fs.Handle, name string) (fs.Handle, wire.Qid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := from.(*node)
	if name == ".." {
		if n.parent != nil {
			return n.parent, n.parent.qid(), nil
		}
		return n, n.qid(), nil
	}
	if !n.dir {
		return nil, nil, fs.NewError(fs.KindNotDir, "")
	}
	for _, c := range n.children {
		if c.name == name {
			return c, c.qid(), nil
		}
	}
	return nil, nil, fs.NewError(fs.KindNotFound, name)
}

// Open validates mode against node's type: a directory may only be
// opened for reading. OTRUNC on a regular file discards its contents.
func (f *FS) Open(handle fs.Handle, flags fs.OpenFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	if n.dir && wire.Mode(flags.Mode) != wire.OREAD {
		return fs.NewError(fs.KindIsDir, "")
	}
	if flags.Truncate && !n.dir && len(n.data) > 0 {
		n.data = nil
		n.touch()
	}
	return nil
}

// Create makes a new child of parent named name, already open.
func (f *FS) Create(parent fs.Handle, name string, perm uint32, flags fs.OpenFlags) (fs.Handle, wire.Qid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := parent.(*node)
	if !p.dir {
		return nil, nil, fs.NewError(fs.KindNotDir, "")
	}
	for _, c := range p.children {
		if c.name == name {
			return nil, nil, fs.NewError(fs.KindExists, "")
		}
	}
	child := &node{
		name:   name,
		dir:    perm&DMDIR != 0,
		mode:   perm,
		path:   f.allocPath(),
		parent: p,
		uid:    f.owner,
		gid:    f.owner,
		muid:   f.owner,
	}
	now := uint32(time.Now().Unix())
	child.atime, child.mtime = now, now
	p.children = append(p.children, child)
	p.touch()
	return child, child.qid(), nil
}

// Read reads from node at offset. Directory reads return consecutive
// stat records, never splitting one across the end of buf.
func (f *FS) Read(handle fs.Handle, offset uint64, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	if n.dir {
		return readDir(n, offset, buf)
	}
	n.atime = uint32(time.Now().Unix())
	if offset >= uint64(len(n.data)) {
		return 0, nil
	}
	return copy(buf, n.data[offset:]), nil
}

func readDir(n *node, offset uint64, buf []byte) (int, error) {
	var all []byte
	for _, c := range n.children {
		all = encodeStat(all, c)
	}
	if offset >= uint64(len(all)) {
		return 0, nil
	}
	remaining := all[offset:]
	if len(remaining) <= len(buf) {
		return copy(buf, remaining), nil
	}
	var end int
	for end < len(remaining) {
		recLen := int(uint16(remaining[end]) | uint16(remaining[end+1])<<8)
		if end+2+recLen > len(buf) {
			break
		}
		end += 2 + recLen
	}
	return copy(buf, remaining[:end]), nil
}

func encodeStat(buf []byte, n *node) []byte {
	return wire.EncodeStat(buf, n.qid(), n.mode, n.atime, n.mtime, uint64(len(n.data)), n.name, n.uid, n.gid, n.muid)
}

// Write writes data to node at offset, growing it if necessary.
func (f *FS) Write(handle fs.Handle, offset uint64, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	if n.dir {
		return 0, fs.NewError(fs.KindIsDir, "")
	}
	if n.mode&DMAPPEND != 0 {
		offset = uint64(len(n.data))
	}
	end := offset + uint64(len(data))
	if end > uint64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], data)
	n.touch()
	return len(data), nil
}

// Clunk releases any open-mode bookkeeping for node. ramfs keeps none,
// so Clunk never fails.
func (f *FS) Clunk(handle fs.Handle) error { return nil }

// Remove deletes node from its parent. A non-empty directory cannot
// be removed.
func (f *FS) Remove(handle fs.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	if n.parent == nil {
		return fs.NewError(fs.KindDenied, "cannot remove root")
	}
	if n.dir && len(n.children) > 0 {
		return fs.NewError(fs.KindNotEmpty, "")
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c == n {
			n.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.parent.touch()
	return nil
}

// Stat returns a freshly encoded stat record for node.
func (f *FS) Stat(handle fs.Handle) (wire.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	return wire.Stat(encodeStat(nil, n)), nil
}

// Wstat applies the mutable fields of stat to node. Don't-touch
// sentinels leave the corresponding field unchanged.
func (f *FS) Wstat(handle fs.Handle, stat wire.Stat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := handle.(*node)
	if !wire.IsDontTouch(stat.Name()) {
		newName := string(stat.Name())
		if n.parent != nil {
			for _, c := range n.parent.children {
				if c != n && c.name == newName {
					return fs.NewError(fs.KindExists, "")
				}
			}
		}
		n.name = newName
	}
	if stat.Mode() != wire.DontTouchU32 {
		n.mode = stat.Mode()
	}
	if stat.Mtime() != wire.DontTouchU32 {
		n.mtime = stat.Mtime()
	}
	if stat.Length() != wire.DontTouchU64 && !n.dir {
		length := stat.Length()
		if length != uint64(len(n.data)) {
			grown := make([]byte, length)
			copy(grown, n.data)
			n.data = grown
		}
	}
	if !wire.IsDontTouch(stat.Uid()) {
		n.uid = string(stat.Uid())
	}
	if !wire.IsDontTouch(stat.Gid()) {
		n.gid = string(stat.Gid())
	}
	n.version++
	return nil
}
