package wire

// The Encode* functions in this file build T-messages (client
// requests). They exist so tests can exercise the full encode/decode
// round trip for every message type (spec.md section 8) without a
// real 9P client in the loop — the session package only ever needs
// the server-side Encode* functions in encode.go.

// EncodeTauth appends a Tauth message.
func EncodeTauth(buf []byte, tag uint16, afid uint32, uname, aname string) []byte {
	size := uint32(HeaderLen + 4 + stringLen([]byte(uname)) + stringLen([]byte(aname)))
	buf = appendHeader(buf, size, Tauth, tag)
	buf = appendU32(buf, afid)
	buf = appendString(buf, []byte(uname))
	buf = appendString(buf, []byte(aname))
	return buf
}

// EncodeTattach appends a Tattach message.
func EncodeTattach(buf []byte, tag uint16, fid, afid uint32, uname, aname string) []byte {
	size := uint32(HeaderLen + 4 + 4 + stringLen([]byte(uname)) + stringLen([]byte(aname)))
	buf = appendHeader(buf, size, Tattach, tag)
	buf = appendU32(buf, fid)
	buf = appendU32(buf, afid)
	buf = appendString(buf, []byte(uname))
	buf = appendString(buf, []byte(aname))
	return buf
}

// EncodeTflush appends a Tflush message.
func EncodeTflush(buf []byte, tag, oldtag uint16) []byte {
	size := uint32(HeaderLen + 2)
	buf = appendHeader(buf, size, Tflush, tag)
	buf = appendU16(buf, oldtag)
	return buf
}

// EncodeTwalk appends a Twalk message for the given (possibly empty)
// path elements.
func EncodeTwalk(buf []byte, tag uint16, fid, newfid uint32, names []string) []byte {
	size := uint32(HeaderLen + 4 + 4 + 2)
	for _, n := range names {
		size += uint32(stringLen([]byte(n)))
	}
	buf = appendHeader(buf, size, Twalk, tag)
	buf = appendU32(buf, fid)
	buf = appendU32(buf, newfid)
	buf = appendU16(buf, uint16(len(names)))
	for _, n := range names {
		buf = appendString(buf, []byte(n))
	}
	return buf
}

// EncodeTopen appends a Topen message.
func EncodeTopen(buf []byte, tag uint16, fid uint32, mode uint8) []byte {
	size := uint32(HeaderLen + 4 + 1)
	buf = appendHeader(buf, size, Topen, tag)
	buf = appendU32(buf, fid)
	buf = append(buf, mode)
	return buf
}

// EncodeTcreate appends a Tcreate message.
func EncodeTcreate(buf []byte, tag uint16, fid uint32, name string, perm uint32, mode uint8) []byte {
	size := uint32(HeaderLen + 4 + stringLen([]byte(name)) + 4 + 1)
	buf = appendHeader(buf, size, Tcreate, tag)
	buf = appendU32(buf, fid)
	buf = appendString(buf, []byte(name))
	buf = appendU32(buf, perm)
	buf = append(buf, mode)
	return buf
}

// EncodeTread appends a Tread message.
func EncodeTread(buf []byte, tag uint16, fid uint32, offset uint64, count uint32) []byte {
	size := uint32(HeaderLen + 4 + 8 + 4)
	buf = appendHeader(buf, size, Tread, tag)
	buf = appendU32(buf, fid)
	buf = appendU64(buf, offset)
	buf = appendU32(buf, count)
	return buf
}

// EncodeTwrite appends a Twrite message.
func EncodeTwrite(buf []byte, tag uint16, fid uint32, offset uint64, data []byte) []byte {
	size := uint32(HeaderLen + 4 + 8 + 4 + len(data))
	buf = appendHeader(buf, size, Twrite, tag)
	buf = appendU32(buf, fid)
	buf = appendU64(buf, offset)
	buf = appendU32(buf, uint32(len(data)))
	return append(buf, data...)
}

// EncodeTclunk appends a Tclunk message.
func EncodeTclunk(buf []byte, tag uint16, fid uint32) []byte {
	size := uint32(HeaderLen + 4)
	buf = appendHeader(buf, size, Tclunk, tag)
	buf = appendU32(buf, fid)
	return buf
}

// EncodeTremove appends a Tremove message.
func EncodeTremove(buf []byte, tag uint16, fid uint32) []byte {
	size := uint32(HeaderLen + 4)
	buf = appendHeader(buf, size, Tremove, tag)
	buf = appendU32(buf, fid)
	return buf
}

// EncodeTstat appends a Tstat message.
func EncodeTstat(buf []byte, tag uint16, fid uint32) []byte {
	size := uint32(HeaderLen + 4)
	buf = appendHeader(buf, size, Tstat, tag)
	buf = appendU32(buf, fid)
	return buf
}

// EncodeTwstat appends a Twstat message.
func EncodeTwstat(buf []byte, tag uint16, fid uint32, stat []byte) []byte {
	size := uint32(HeaderLen + 4 + 2 + len(stat))
	buf = appendHeader(buf, size, Twstat, tag)
	buf = appendU32(buf, fid)
	buf = appendU16(buf, uint16(len(stat)))
	return append(buf, stat...)
}
