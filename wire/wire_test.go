package wire

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestParseHeader(t *testing.T) {
	buf := EncodeRclunk(nil, 7)
	hdr, err := ParseHeader(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Type != Rclunk || hdr.Tag != 7 || int(hdr.Size) != len(buf) {
		t.Fatalf("got %+v", hdr)
	}
}

func TestParseHeaderShort(t *testing.T) {
	if _, err := ParseHeader([]byte{1, 2, 3}, 0); err != ErrMalformedHeader {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
}

func TestParseHeaderOverCap(t *testing.T) {
	buf := EncodeTversion(nil, NoTag, 8192, "9P2000")
	if _, err := ParseHeader(buf, 16); err != ErrMalformedHeader {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
}

func TestRoundTripVersion(t *testing.T) {
	buf := EncodeTversion(nil, NoTag, 8192, "9P2000")
	m, err := Decode(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	tv, ok := m.(TversionMsg)
	if !ok {
		t.Fatalf("got %T, want TversionMsg", m)
	}
	if tv.Msize() != 8192 || string(tv.Version()) != "9P2000" || tv.Tag() != NoTag {
		t.Fatalf("msize=%d version=%q tag=%d", tv.Msize(), tv.Version(), tv.Tag())
	}
}

func TestRoundTripWalk(t *testing.T) {
	buf := EncodeTwalk(nil, 2, 0, 1, []string{"a", "bb", "ccc"})
	m, err := Decode(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	tw := m.(TwalkMsg)
	if tw.Nwname() != 3 {
		t.Fatalf("nwname=%d", tw.Nwname())
	}
	want := []string{"a", "bb", "ccc"}
	for i, w := range want {
		if string(tw.Wname(i)) != w {
			t.Errorf("wname(%d) = %q, want %q", i, tw.Wname(i), w)
		}
	}
}

func TestWalkTooLong(t *testing.T) {
	names := make([]string, MaxWalkElem+1)
	for i := range names {
		names[i] = "x"
	}
	buf := EncodeTwalk(nil, 2, 0, 1, names)
	if _, err := Decode(buf, 0); err != ErrWalkTooLong {
		t.Fatalf("got %v, want ErrWalkTooLong", err)
	}
}

func TestRoundTripRwalkEmpty(t *testing.T) {
	buf := EncodeRwalk(nil, 2, nil)
	m, err := Decode(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rw := m.(RwalkMsg); rw.Nwqid() != 0 {
		t.Fatalf("nwqid=%d, want 0", rw.Nwqid())
	}
}

func TestRoundTripStat(t *testing.T) {
	qbuf := make([]byte, QidLen)
	qid, _ := NewQid(qbuf, QTFILE, 1, 42)
	stat := EncodeStat(nil, qid, 0644, 0, 0, 3, "hello.txt", "u", "g", "m")
	parsed, err := ParseStat(stat)
	if err != nil {
		t.Fatal(err)
	}
	if string(parsed.Name()) != "hello.txt" || parsed.Length() != 3 {
		t.Fatalf("name=%q length=%d", parsed.Name(), parsed.Length())
	}
	if int(parsed.Size())+2 != len(stat) {
		t.Fatalf("stat size field %d does not match encoded length %d", parsed.Size(), len(stat))
	}
}

func TestRoundTripRread(t *testing.T) {
	data := []byte("hi\n")
	buf := EncodeRread(nil, 4, data)
	m, err := Decode(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.(RreadMsg).Data(), data) {
		t.Fatalf("got %q, want %q", m.(RreadMsg).Data(), data)
	}
}

func TestRoundTripTwrite(t *testing.T) {
	data := []byte("payload")
	buf := EncodeTwrite(nil, 9, 3, 128, data)
	m, err := Decode(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	tw := m.(TwriteMsg)
	if tw.Fid() != 3 || tw.Offset() != 128 || !bytes.Equal(tw.Data(), data) {
		t.Fatalf("got fid=%d offset=%d data=%q", tw.Fid(), tw.Offset(), tw.Data())
	}
}

func TestTruncatedMessageIsMalformed(t *testing.T) {
	buf := EncodeTwrite(nil, 9, 3, 0, []byte("payload"))
	buf = buf[:len(buf)-2]
	// size field still claims the original, larger length
	if _, err := Decode(buf, 0); err == nil {
		t.Fatal("expected error decoding truncated message")
	}
}

// TestRoundTripRandomized exercises the round-trip property from
// spec.md section 8: every (encode -> decode) pair yields a
// structurally equal message, across randomized string/walk inputs
// within the documented size bounds.
func TestRoundTripRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := r.Intn(MaxWalkElem + 1)
		names := make([]string, n)
		for j := range names {
			names[j] = randString(r, 1+r.Intn(20))
		}
		tag := uint16(r.Intn(1 << 16))
		buf := EncodeTwalk(nil, tag, r.Uint32(), r.Uint32(), names)
		m, err := Decode(buf, 0)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		tw := m.(TwalkMsg)
		if tw.Tag() != tag || tw.Nwname() != n {
			t.Fatalf("iteration %d: tag=%d nwname=%d", i, tw.Tag(), tw.Nwname())
		}
		for j, name := range names {
			if string(tw.Wname(j)) != name {
				t.Fatalf("iteration %d: wname(%d)=%q want %q", i, j, tw.Wname(j), name)
			}
		}
	}
}

func randString(r *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFG"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}
