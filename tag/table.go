// Package tag implements the per-session tag table described in
// spec.md section 4.C: a fixed-capacity set of in-flight request
// tags with a per-tag user-data slot, used to match a Tflush's oldtag
// against the request it would cancel. Grounded on
// original_source/src/tag.c (ninep_tag_alloc/lookup/free), which
// allocates tags as array indices — the same approach is kept here
// for Alloc, rather than droyo-styx's internal/pool.TagPool (see
// package fid's doc comment for why a contiguous-sequence pool is the
// wrong shape: the tag table must be able to reuse any freed slot, not
// just the most recently freed one). A real wire tag, unlike the
// index ninep_tag_alloc hands back, is chosen by the client, so Add
// registers an externally-supplied value the same way fid.Table.Alloc
// registers a client-chosen fid.
package tag

import "errors"

// ErrNoTags is returned by Alloc and Add when the table is at
// capacity, matching the NoTags error kind in spec.md section 7.
var ErrNoTags = errors.New("no free tags")

// NoTag is the reserved tag value that accompanies the Tversion
// handshake; Alloc never returns it and Add refuses to register it.
const NoTag uint16 = 0xFFFF

var (
	errReservedTag = errors.New("tag: cannot register reserved NOTAG value")
	errTagInUse    = errors.New("tag: already in flight")
	errNotInFlight = errors.New("tag: not in flight")
)

type slot struct {
	inUse bool
	tag   uint16
	data  interface{}
}

// A Table is a fixed-capacity set of in-flight tags, one per session.
// Slots are scanned linearly by stored tag value, the same shape as
// fid.Table, so either a server-chosen (Alloc) or client-chosen (Add)
// tag value can be tracked. The zero Table is not usable; create one
// with New.
type Table struct {
	slots []slot
}

// New returns an empty Table able to hold up to capacity in-flight
// tags. capacity is capped at 0xFFFF, the number of tag values other
// than the reserved NoTag.
func New(capacity int) *Table {
	if capacity > int(NoTag) {
		capacity = int(NoTag)
	}
	return &Table{slots: make([]slot, capacity)}
}

// Alloc reserves a fresh tag and returns it, with its user-data slot
// set to nil. It fails with ErrNoTags if the table is full. The
// returned value is always the smallest integer not currently in
// flight, mirroring ninep_tag_alloc's behavior of handing back a
// table index as the tag value.
func (t *Table) Alloc() (uint16, error) {
	for candidate := 0; candidate < len(t.slots); candidate++ {
		if _, inFlight := t.lookupSlot(uint16(candidate)); inFlight < 0 {
			free := t.freeSlot()
			if free < 0 {
				return 0, ErrNoTags
			}
			t.slots[free] = slot{inUse: true, tag: uint16(candidate)}
			return uint16(candidate), nil
		}
	}
	return 0, ErrNoTags
}

// Add registers a specific, caller-chosen tag value as in flight.
// Real sessions use this instead of Alloc, since the wire tag in a
// T-message is chosen by the client, not generated by the server. It
// fails with errReservedTag if tg is NoTag, errTagInUse if tg is
// already in flight, or ErrNoTags if the table has no free slot.
func (t *Table) Add(tg uint16) error {
	if tg == NoTag {
		return errReservedTag
	}
	if _, idx := t.lookupSlot(tg); idx >= 0 {
		return errTagInUse
	}
	free := t.freeSlot()
	if free < 0 {
		return ErrNoTags
	}
	t.slots[free] = slot{inUse: true, tag: tg}
	return nil
}

// Lookup returns the user data associated with tag. ok is false if
// tag is not currently in flight.
func (t *Table) Lookup(tg uint16) (data interface{}, ok bool) {
	d, idx := t.lookupSlot(tg)
	return d, idx >= 0
}

// SetData stores data in tag's user-data slot. It is a no-op if tag
// is not currently in flight.
func (t *Table) SetData(tg uint16, data interface{}) {
	if _, idx := t.lookupSlot(tg); idx >= 0 {
		t.slots[idx].data = data
	}
}

// Free releases tag so that a later Alloc or Add can reuse its slot.
// Removing a tag that is not in flight is an error; the caller does
// not need idempotent frees (spec.md section 4.C).
func (t *Table) Free(tg uint16) error {
	if _, idx := t.lookupSlot(tg); idx >= 0 {
		t.slots[idx] = slot{}
		return nil
	}
	return errNotInFlight
}

// Reset clears every in-flight tag, as happens when a session is
// destroyed or reset by a later Tversion.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = slot{}
	}
}

func (t *Table) lookupSlot(tg uint16) (data interface{}, idx int) {
	for i := range t.slots {
		if t.slots[i].inUse && t.slots[i].tag == tg {
			return t.slots[i].data, i
		}
	}
	return nil, -1
}

func (t *Table) freeSlot() int {
	for i := range t.slots {
		if !t.slots[i].inUse {
			return i
		}
	}
	return -1
}
