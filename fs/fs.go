// Package fs defines the minimal filesystem capability every 9p4z
// backend must implement (spec.md section 4.D). It plays the role
// droyo-styx's Handler/Request types play for styx, but as a direct
// capability interface rather than a callback-dispatched handler
// pipeline, since the session state machine this framework builds
// dispatches serially and needs synchronous return values, not a
// goroutine-per-request Request channel.
package fs

import "github.com/jrsharp/9p4z-sub001/wire"

// A Handle is an opaque, backend-owned reference to a node in the
// file tree. The session never introspects it; it only ever stores a
// Handle alongside a qid copy in a fid.Entry (spec.md section 9:
// "model backend handles as opaque ... values owned by the backend,
// never by the session").
type Handle interface{}

// OpenFlags is the open mode accepted by Open and Create: the wire
// access mode (wire.OREAD etc.) plus the OTRUNC/ORCLOSE flags and an
// exclusive-create flag, each split out into its own field.
type OpenFlags struct {
	Mode        uint8 // wire.OREAD/OWRITE/ORDWR/OEXEC
	Truncate    bool
	RemoveClose bool
	ExclCreate  bool
}

// FS is the capability set a concrete filesystem backend exposes to
// the session state machine. Implementations must be safe for
// concurrent use from multiple sessions (spec.md section 5); the
// reference ramfs backend achieves this with a single mutex around
// its context.
type FS interface {
	// Root returns the backend's root node and its qid.
	Root() (Handle, wire.Qid, error)

	// Walk returns the child of from named name, and its qid. Walking
	// ".." past the root returns the root again, never an error.
	// Walking a name that does not exist is NotFound.
	Walk(from Handle, name string) (Handle, wire.Qid, error)

	// Open validates and records the open mode for node. Opening a
	// directory with a write-capable mode is IsDir.
	Open(node Handle, flags OpenFlags) error

	// Create makes a new child of the directory parent, and returns a
	// handle to the new node, already open with flags.
	Create(parent Handle, name string, perm uint32, flags OpenFlags) (Handle, wire.Qid, error)

	// Read reads up to len(buf) bytes from node starting at offset,
	// returning the number of bytes read (0 at EOF). For directories,
	// this returns concatenated stat records; a partial record must
	// never be returned even if it would fit further bytes into buf.
	Read(node Handle, offset uint64, buf []byte) (int, error)

	// Write writes data to node at offset, returning the number of
	// bytes written. Append-only files ignore offset.
	Write(node Handle, offset uint64, data []byte) (int, error)

	// Clunk releases any open-mode state held for node. A backend
	// error from Clunk is logged, never surfaced to the client (spec.md
	// section 4.D): the session always still acks with Rclunk.
	Clunk(node Handle) error

	// Remove deletes node.
	Remove(node Handle) error

	// Stat returns a freshly encoded wire.Stat for node.
	Stat(node Handle) (wire.Stat, error)

	// Wstat applies the mutable fields of stat to node. Fields set to
	// the wire "don't touch" sentinels are left alone.
	Wstat(node Handle, stat wire.Stat) error
}
