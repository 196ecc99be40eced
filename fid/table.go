// Package fid implements the per-session fid table described in
// spec.md section 4.B: a fixed-capacity map from a client-chosen fid
// number to the server-held handle it names. The allocation shape is
// grounded directly on original_source/src/fid.c
// (ninep_fid_alloc/ninep_fid_lookup/ninep_fid_free): a fixed array
// scanned linearly, rather than droyo-styx's internal/pool.FidPool,
// which hands out a contiguous *server-chosen* sequence — the wrong
// shape for a table keyed by a client-chosen integer (see
// SPEC_FULL.md section 4.B).
package fid

import "errors"

// Errors returned by table operations, matching the FidInUse,
// UnknownFid and NoFids kinds in spec.md section 7.
var (
	ErrInUse   = errors.New("fid in use")
	ErrUnknown = errors.New("unknown fid")
	ErrNoFids  = errors.New("no free fids")
)

// Open mode flags recorded on an opened fid.
const (
	FlagOpen     = 1 << iota // fid has been opened
	FlagTrunc               // open included OTRUNC
	FlagRclose              // open included ORCLOSE
)

// An Entry is the server-side state bound to a single fid: the qid it
// names, its open-mode flags, a read/write cursor, and the opaque
// backend handle the session never introspects (spec.md section 9).
type Entry struct {
	Qid    []byte // 13-byte wire qid, owned by the backend
	Flags  int
	Mode   uint8 // the open mode passed to Topen/Tcreate
	Offset uint64
	Handle interface{} // opaque backend node
}

// Open reports whether the entry has been opened.
func (e *Entry) Open() bool { return e.Flags&FlagOpen != 0 }

type slot struct {
	inUse bool
	fid   uint32
	entry Entry
}

// A Table is a fixed-capacity fid table, exclusively owned by one
// session (spec.md section 3: "fid entries are exclusively owned by
// their session"). The zero Table is not usable; create one with New.
type Table struct {
	slots []slot
}

// New returns an empty Table with room for capacity fids.
func New(capacity int) *Table {
	return &Table{slots: make([]slot, capacity)}
}

// Alloc reserves fid in the table with an empty qid, ready to be
// filled in by the caller (e.g. after a successful Tattach or Twalk).
// It fails with ErrInUse if fid is already bound, or ErrNoFids if the
// table is at capacity.
func (t *Table) Alloc(fid uint32) (*Entry, error) {
	free := -1
	for i := range t.slots {
		if t.slots[i].inUse {
			if t.slots[i].fid == fid {
				return nil, ErrInUse
			}
		} else if free < 0 {
			free = i
		}
	}
	if free < 0 {
		return nil, ErrNoFids
	}
	t.slots[free] = slot{inUse: true, fid: fid}
	return &t.slots[free].entry, nil
}

// Lookup returns the entry bound to fid, or ErrUnknown if fid is not
// currently allocated.
func (t *Table) Lookup(fid uint32) (*Entry, error) {
	for i := range t.slots {
		if t.slots[i].inUse && t.slots[i].fid == fid {
			return &t.slots[i].entry, nil
		}
	}
	return nil, ErrUnknown
}

// Free removes fid from the table. It fails with ErrUnknown if fid is
// not currently allocated. After Free returns, Lookup(fid) returns
// ErrUnknown until fid is Alloc'd again.
func (t *Table) Free(fid uint32) error {
	for i := range t.slots {
		if t.slots[i].inUse && t.slots[i].fid == fid {
			t.slots[i] = slot{}
			return nil
		}
	}
	return ErrUnknown
}

// Reset clears every entry in the table, as happens when a session is
// destroyed or a Tversion resets it (spec.md section 4.E).
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = slot{}
	}
}

// Each calls f once for every currently-allocated fid, in no
// particular order. f must not call back into the table; it exists so
// a caller can release backend state (e.g. clunk every open handle)
// before a Reset.
func (t *Table) Each(f func(fid uint32, e *Entry)) {
	for i := range t.slots {
		if t.slots[i].inUse {
			f(t.slots[i].fid, &t.slots[i].entry)
		}
	}
}

// Len returns the number of fids currently allocated.
func (t *Table) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].inUse {
			n++
		}
	}
	return n
}
