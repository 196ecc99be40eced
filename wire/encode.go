package wire

// Encode* functions append a fully-framed 9P message to buf (which
// may be nil or have spare capacity supplied by the caller) and
// return the extended slice. They never perform I/O; the caller is
// responsible for handing the result to a transport.

func appendHeader(buf []byte, size uint32, typ uint8, tag uint16) []byte {
	var h [HeaderLen]byte
	putU32(h[0:4], size)
	h[4] = typ
	putU16(h[5:7], tag)
	return append(buf, h[:]...)
}

func appendString(buf []byte, s []byte) []byte {
	var l [2]byte
	putU16(l[:], uint16(len(s)))
	buf = append(buf, l[:]...)
	return append(buf, s...)
}

func appendQid(buf []byte, q Qid) []byte {
	return append(buf, q[:QidLen]...)
}

func stringLen(s []byte) int { return 2 + len(s) }

// EncodeTversion appends a Tversion message. tag should be NoTag.
func EncodeTversion(buf []byte, tag uint16, msize uint32, version string) []byte {
	size := uint32(HeaderLen + 4 + stringLen([]byte(version)))
	buf = appendHeader(buf, size, Tversion, tag)
	buf = appendU32(buf, msize)
	buf = appendString(buf, []byte(version))
	return buf
}

// EncodeRversion appends an Rversion message.
func EncodeRversion(buf []byte, tag uint16, msize uint32, version string) []byte {
	size := uint32(HeaderLen + 4 + stringLen([]byte(version)))
	buf = appendHeader(buf, size, Rversion, tag)
	buf = appendU32(buf, msize)
	buf = appendString(buf, []byte(version))
	return buf
}

// EncodeRauth appends an Rauth message.
func EncodeRauth(buf []byte, tag uint16, aqid Qid) []byte {
	size := uint32(HeaderLen + QidLen)
	buf = appendHeader(buf, size, Rauth, tag)
	buf = appendQid(buf, aqid)
	return buf
}

// EncodeRattach appends an Rattach message.
func EncodeRattach(buf []byte, tag uint16, qid Qid) []byte {
	size := uint32(HeaderLen + QidLen)
	buf = appendHeader(buf, size, Rattach, tag)
	buf = appendQid(buf, qid)
	return buf
}

// EncodeRerror appends an Rerror message, truncating ename if it
// exceeds MaxErrorLen.
func EncodeRerror(buf []byte, tag uint16, ename string) []byte {
	if len(ename) > MaxErrorLen {
		ename = ename[:MaxErrorLen]
	}
	size := uint32(HeaderLen + stringLen([]byte(ename)))
	buf = appendHeader(buf, size, Rerror, tag)
	buf = appendString(buf, []byte(ename))
	return buf
}

// EncodeRflush appends an Rflush message.
func EncodeRflush(buf []byte, tag uint16) []byte {
	return appendHeader(buf, HeaderLen, Rflush, tag)
}

// EncodeRwalk appends an Rwalk message for the given (possibly empty)
// slice of qids.
func EncodeRwalk(buf []byte, tag uint16, qids []Qid) []byte {
	size := uint32(HeaderLen + 2 + len(qids)*QidLen)
	buf = appendHeader(buf, size, Rwalk, tag)
	buf = appendU16(buf, uint16(len(qids)))
	for _, q := range qids {
		buf = appendQid(buf, q)
	}
	return buf
}

// EncodeRopen appends an Ropen message.
func EncodeRopen(buf []byte, tag uint16, qid Qid, iounit uint32) []byte {
	size := uint32(HeaderLen + QidLen + 4)
	buf = appendHeader(buf, size, Ropen, tag)
	buf = appendQid(buf, qid)
	buf = appendU32(buf, iounit)
	return buf
}

// EncodeRcreate appends an Rcreate message.
func EncodeRcreate(buf []byte, tag uint16, qid Qid, iounit uint32) []byte {
	size := uint32(HeaderLen + QidLen + 4)
	buf = appendHeader(buf, size, Rcreate, tag)
	buf = appendQid(buf, qid)
	buf = appendU32(buf, iounit)
	return buf
}

// EncodeRread appends an Rread message carrying data.
func EncodeRread(buf []byte, tag uint16, data []byte) []byte {
	size := uint32(HeaderLen + 4 + len(data))
	buf = appendHeader(buf, size, Rread, tag)
	buf = appendU32(buf, uint32(len(data)))
	return append(buf, data...)
}

// EncodeRwrite appends an Rwrite message.
func EncodeRwrite(buf []byte, tag uint16, count uint32) []byte {
	size := uint32(HeaderLen + 4)
	buf = appendHeader(buf, size, Rwrite, tag)
	buf = appendU32(buf, count)
	return buf
}

// EncodeRclunk appends an Rclunk message.
func EncodeRclunk(buf []byte, tag uint16) []byte {
	return appendHeader(buf, HeaderLen, Rclunk, tag)
}

// EncodeRremove appends an Rremove message.
func EncodeRremove(buf []byte, tag uint16) []byte {
	return appendHeader(buf, HeaderLen, Rremove, tag)
}

// EncodeRstat appends an Rstat message wrapping a single stat record.
func EncodeRstat(buf []byte, tag uint16, stat []byte) []byte {
	size := uint32(HeaderLen + 2 + len(stat))
	buf = appendHeader(buf, size, Rstat, tag)
	buf = appendU16(buf, uint16(len(stat)))
	return append(buf, stat...)
}

// EncodeRwstat appends an Rwstat message.
func EncodeRwstat(buf []byte, tag uint16) []byte {
	return appendHeader(buf, HeaderLen, Rwstat, tag)
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	putU16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	putU32(b[:], v)
	return append(buf, b[:]...)
}

// EncodeStat appends a wire-format stat record (without the
// enclosing Rstat/Rread framing) to buf. name/uid/gid/muid are
// truncated to fit MaxFilenameLen/MaxUidLen respectively. The bytes
// of the returned slice past the original len(buf) are the encoded
// record; callers that need just the record (e.g. to embed in a
// directory Rread) should slice accordingly.
func EncodeStat(buf []byte, qid Qid, mode uint32, atime, mtime uint32, length uint64, name, uid, gid, muid string) []byte {
	if len(name) > MaxFilenameLen {
		name = name[:MaxFilenameLen]
	}
	if len(uid) > MaxUidLen {
		uid = uid[:MaxUidLen]
	}
	if len(gid) > MaxUidLen {
		gid = gid[:MaxUidLen]
	}
	if len(muid) > MaxUidLen {
		muid = muid[:MaxUidLen]
	}
	body := StatHeaderLen - 2 + stringLen([]byte(name)) + stringLen([]byte(uid)) +
		stringLen([]byte(gid)) + stringLen([]byte(muid))

	buf = appendU16(buf, uint16(body))
	buf = appendU16(buf, 0) // type (kernel use)
	buf = appendU32(buf, 0) // dev (kernel use)
	buf = appendQid(buf, qid)
	buf = appendU32(buf, mode)
	buf = appendU32(buf, atime)
	buf = appendU32(buf, mtime)
	buf = appendU64(buf, length)
	buf = appendString(buf, []byte(name))
	buf = appendString(buf, []byte(uid))
	buf = appendString(buf, []byte(gid))
	buf = appendString(buf, []byte(muid))
	return buf
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	putU64(b[:], v)
	return append(buf, b[:]...)
}
