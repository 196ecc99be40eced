package fid

import "testing"

func TestAllocLookupFree(t *testing.T) {
	tbl := New(4)

	e, err := tbl.Alloc(10)
	if err != nil {
		t.Fatal(err)
	}
	e.Handle = "root"

	got, err := tbl.Lookup(10)
	if err != nil {
		t.Fatal(err)
	}
	if got.Handle != "root" {
		t.Fatalf("got %v, want root", got.Handle)
	}

	if err := tbl.Free(10); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Lookup(10); err != ErrUnknown {
		t.Fatalf("got %v, want ErrUnknown", err)
	}
	if err := tbl.Free(10); err != ErrUnknown {
		t.Fatalf("double free: got %v, want ErrUnknown", err)
	}
}

func TestAllocInUse(t *testing.T) {
	tbl := New(4)
	if _, err := tbl.Alloc(1); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Alloc(1); err != ErrInUse {
		t.Fatalf("got %v, want ErrInUse", err)
	}
}

func TestAllocNoFids(t *testing.T) {
	tbl := New(2)
	if _, err := tbl.Alloc(1); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Alloc(2); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Alloc(3); err != ErrNoFids {
		t.Fatalf("got %v, want ErrNoFids", err)
	}
}

func TestFreeSlotReusable(t *testing.T) {
	tbl := New(1)
	if _, err := tbl.Alloc(5); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Free(5); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Alloc(6); err != nil {
		t.Fatalf("expected freed slot to be reusable, got %v", err)
	}
}

func TestReset(t *testing.T) {
	tbl := New(4)
	tbl.Alloc(1)
	tbl.Alloc(2)
	tbl.Reset()
	if tbl.Len() != 0 {
		t.Fatalf("got %d fids after reset, want 0", tbl.Len())
	}
}
