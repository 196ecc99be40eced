// Union composes several fs.FS backends into one tree, the way
// original_source's union_fs.h/sysfs.h let a handful of purpose-built
// device trees (a sysfs-style control tree, a sensor tree) sit at fixed
// mount points under one root without the root itself knowing about
// them. A Union keeps one *FS as its base tree and a small set of
// mount points, each redirecting every operation below it to a
// different fs.FS.
package ramfs

import (
	"path"
	"sort"
	"strings"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// Union composes a base *FS with zero or more sub-trees mounted at
// fixed path prefixes. The zero Union is not usable; create one with
// NewUnion.
type Union struct {
	base   *FS
	mounts []mount
}

type mount struct {
	point   string // clean, leading-slash, no trailing slash (except "/")
	backend fs.FS
}

// NewUnion returns a Union whose fallback tree is base.
func NewUnion(base *FS) *Union {
	return &Union{base: base}
}

// Mount grafts backend onto the tree at point, which must be a clean
// absolute path ("/ctl", "/dev/sensors"). Mount points are matched
// longest-prefix-first, so a mount at "/dev/sensors" takes precedence
// over one at "/dev" for paths beneath it. Mounting over an existing
// point replaces it.
func (u *Union) Mount(point string, backend fs.FS) {
	point = cleanMountPoint(point)
	for i := range u.mounts {
		if u.mounts[i].point == point {
			u.mounts[i].backend = backend
			return
		}
	}
	u.mounts = append(u.mounts, mount{point: point, backend: backend})
	sort.Slice(u.mounts, func(i, j int) bool {
		return len(u.mounts[i].point) > len(u.mounts[j].point)
	})
}

func cleanMountPoint(p string) string {
	p = path.Clean("/" + p)
	return p
}

// mountHandle is the Handle the Union hands back for every node,
// regardless of which backend actually owns it: it pairs the
// delegate's own Handle with the path walked so far and the backend
// that owns it, so Walk can re-dispatch exactly at a mount boundary.
type mountHandle struct {
	backend fs.FS
	inner   fs.Handle
	path    string
}

// Root returns the base tree's root, wrapped so later Walks can
// recognize when they cross into a mounted sub-tree.
func (u *Union) Root() (fs.Handle, wire.Qid, error) {
	h, q, err := u.base.Root()
	if err != nil {
		return nil, nil, err
	}
	return &mountHandle{backend: u.base, inner: h, path: "/"}, q, nil
}

// backendFor returns the most specific mount whose point is newPath or
// an ancestor of it, or ok=false if newPath falls outside every mount
// (meaning it stays on the base tree).
func (u *Union) backendFor(newPath string) (fs.FS, bool) {
	for _, m := range u.mounts {
		if newPath == m.point || strings.HasPrefix(newPath, m.point+"/") {
			return m.backend, true
		}
	}
	return nil, false
}

func (u *Union) Walk(from fs.Handle, name string) (fs.Handle, wire.Qid, error) {
	mh := from.(*mountHandle)

	if name == ".." && mh.path != "/" {
		parentPath := path.Dir(mh.path)
		// Walking ".." out of a mounted sub-tree back onto the base
		// tree requires re-resolving from the base root, since the
		// sub-tree's own ".." only knows how to walk within itself.
		if _, mounted := u.backendFor(mh.path); mounted {
			if _, stillMounted := u.backendFor(parentPath); !stillMounted {
				return u.walkFromBaseRoot(parentPath)
			}
		}
	}

	newPath := path.Dir(mh.path)
	if name != ".." {
		newPath = path.Join(mh.path, name)
	}

	// A walk that lands on another backend's mount point crosses into
	// that backend's root; the current tree need not have a node there.
	if backend, ok := u.backendFor(newPath); ok && backend != mh.backend {
		rootHandle, rootQid, rerr := backend.Root()
		if rerr != nil {
			return nil, nil, rerr
		}
		return &mountHandle{backend: backend, inner: rootHandle, path: newPath}, rootQid, nil
	}

	inner, q, err := mh.backend.Walk(mh.inner, name)
	if err != nil {
		return nil, nil, err
	}
	return &mountHandle{backend: mh.backend, inner: inner, path: newPath}, q, nil
}

// walkFromBaseRoot re-resolves targetPath by walking the base tree
// component by component from its root, used only when ".." crosses
// back out of a mounted sub-tree.
func (u *Union) walkFromBaseRoot(targetPath string) (fs.Handle, wire.Qid, error) {
	h, q, err := u.base.Root()
	if err != nil {
		return nil, nil, err
	}
	cur := &mountHandle{backend: u.base, inner: h, path: "/"}
	if targetPath == "/" {
		return cur, q, nil
	}
	for _, comp := range strings.Split(strings.TrimPrefix(targetPath, "/"), "/") {
		if comp == "" {
			continue
		}
		next, nq, err := u.Walk(cur, comp)
		if err != nil {
			return nil, nil, err
		}
		cur, q = next.(*mountHandle), nq
	}
	return cur, q, nil
}

func (u *Union) Open(node fs.Handle, flags fs.OpenFlags) error {
	mh := node.(*mountHandle)
	return mh.backend.Open(mh.inner, flags)
}

func (u *Union) Create(parent fs.Handle, name string, perm uint32, flags fs.OpenFlags) (fs.Handle, wire.Qid, error) {
	mh := parent.(*mountHandle)
	inner, q, err := mh.backend.Create(mh.inner, name, perm, flags)
	if err != nil {
		return nil, nil, err
	}
	return &mountHandle{backend: mh.backend, inner: inner, path: path.Join(mh.path, name)}, q, nil
}

func (u *Union) Read(node fs.Handle, offset uint64, buf []byte) (int, error) {
	mh := node.(*mountHandle)
	return mh.backend.Read(mh.inner, offset, buf)
}

func (u *Union) Write(node fs.Handle, offset uint64, data []byte) (int, error) {
	mh := node.(*mountHandle)
	return mh.backend.Write(mh.inner, offset, data)
}

func (u *Union) Clunk(node fs.Handle) error {
	mh := node.(*mountHandle)
	return mh.backend.Clunk(mh.inner)
}

func (u *Union) Remove(node fs.Handle) error {
	mh := node.(*mountHandle)
	return mh.backend.Remove(mh.inner)
}

func (u *Union) Stat(node fs.Handle) (wire.Stat, error) {
	mh := node.(*mountHandle)
	return mh.backend.Stat(mh.inner)
}

func (u *Union) Wstat(node fs.Handle, stat wire.Stat) error {
	mh := node.(*mountHandle)
	return mh.backend.Wstat(mh.inner, stat)
}
