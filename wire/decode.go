package wire

// A Header is the 7-byte preamble common to every 9P message:
// size[4] type[1] tag[2]. size counts itself.
type Header struct {
	Size uint32
	Type uint8
	Tag  uint16
}

// ParseHeader reads the 7-byte message header from the front of buf.
// It fails with ErrMalformedHeader if buf is too short or if the
// encoded size is inconsistent (size < HeaderLen, or size > msizeCap
// when msizeCap is nonzero).
func ParseHeader(buf []byte, msizeCap uint32) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrMalformedHeader
	}
	size := getU32(buf[0:4])
	if size < HeaderLen {
		return Header{}, ErrMalformedHeader
	}
	if msizeCap != 0 && size > msizeCap {
		return Header{}, ErrMalformedHeader
	}
	return Header{
		Size: size,
		Type: buf[4],
		Tag:  getU16(buf[5:7]),
	}, nil
}

// parseString reads a 2-byte-length-prefixed string starting at
// buf[offset]. It returns the string's raw bytes (a view into buf, not
// a copy — the codec never assumes the bytes are UTF-8) and the offset
// of the byte immediately following the string. All arithmetic is
// checked; an embedded length that would run past len(buf) is
// ErrMalformedMessage.
func parseString(buf []byte, offset int) (s []byte, next int, err error) {
	if offset < 0 || offset+2 > len(buf) {
		return nil, 0, ErrMalformedMessage
	}
	n := int(getU16(buf[offset : offset+2]))
	offset += 2
	end := offset + n
	if end < offset || end > len(buf) {
		return nil, 0, ErrMalformedMessage
	}
	return buf[offset:end], end, nil
}

// ParseQid reads a 13-byte Qid starting at buf[offset], returning a
// view into buf and the offset following the Qid.
func ParseQid(buf []byte, offset int) (Qid, int, error) {
	if offset < 0 || offset+QidLen > len(buf) {
		return nil, 0, ErrMalformedMessage
	}
	return Qid(buf[offset : offset+QidLen]), offset + QidLen, nil
}

// Msg is satisfied by every decoded 9P message.
type Msg interface {
	// MsgType returns the message's Tcode/Rcode (spec section 6).
	MsgType() uint8
	// Tag returns the request tag the message carries.
	Tag() uint16
}

type rawMsg []byte

func (m rawMsg) MsgType() uint8 { return m[4] }
func (m rawMsg) Tag() uint16    { return getU16(m[5:7]) }

// The following types each wrap a validated message buffer (including
// its 7-byte header) the way styxproto.Tversion etc. wrap message
// bytes — field accessors index directly into the buffer instead of
// copying into a struct, so decoding never allocates beyond what the
// caller already handed it.
type (
	TversionMsg rawMsg
	RversionMsg rawMsg
	TauthMsg    rawMsg
	RauthMsg    rawMsg
	TattachMsg  rawMsg
	RattachMsg  rawMsg
	RerrorMsg   rawMsg
	TflushMsg   rawMsg
	RflushMsg   rawMsg
	TwalkMsg    rawMsg
	RwalkMsg    rawMsg
	TopenMsg    rawMsg
	RopenMsg    rawMsg
	TcreateMsg  rawMsg
	RcreateMsg  rawMsg
	TreadMsg    rawMsg
	RreadMsg    rawMsg
	TwriteMsg   rawMsg
	RwriteMsg   rawMsg
	TclunkMsg   rawMsg
	RclunkMsg   rawMsg
	TremoveMsg  rawMsg
	RremoveMsg  rawMsg
	TstatMsg    rawMsg
	RstatMsg    rawMsg
	TwstatMsg   rawMsg
	RwstatMsg   rawMsg
)

func (m TversionMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TversionMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TversionMsg) Msize() uint32  { return getU32(m[7:11]) }
func (m TversionMsg) Version() []byte {
	s, _, _ := parseString(m, 11)
	return s
}

func (m RversionMsg) MsgType() uint8  { return rawMsg(m).MsgType() }
func (m RversionMsg) Tag() uint16     { return rawMsg(m).Tag() }
func (m RversionMsg) Msize() uint32   { return getU32(m[7:11]) }
func (m RversionMsg) Version() []byte { s, _, _ := parseString(m, 11); return s }

func (m TauthMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TauthMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TauthMsg) Afid() uint32   { return getU32(m[7:11]) }
func (m TauthMsg) Uname() []byte  { s, _, _ := parseString(m, 11); return s }
func (m TauthMsg) Aname() []byte {
	_, next, _ := parseString(m, 11)
	s, _, _ := parseString(m, next)
	return s
}

func (m RauthMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RauthMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RauthMsg) Aqid() Qid      { q, _, _ := ParseQid(m, 7); return q }

func (m TattachMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TattachMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TattachMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TattachMsg) Afid() uint32   { return getU32(m[11:15]) }
func (m TattachMsg) Uname() []byte  { s, _, _ := parseString(m, 15); return s }
func (m TattachMsg) Aname() []byte {
	_, next, _ := parseString(m, 15)
	s, _, _ := parseString(m, next)
	return s
}

func (m RattachMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RattachMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RattachMsg) Qid() Qid       { q, _, _ := ParseQid(m, 7); return q }

func (m RerrorMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RerrorMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RerrorMsg) Ename() []byte  { s, _, _ := parseString(m, 7); return s }

func (m TflushMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TflushMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TflushMsg) Oldtag() uint16 { return getU16(m[7:9]) }

func (m RflushMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RflushMsg) Tag() uint16    { return rawMsg(m).Tag() }

func (m TwalkMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TwalkMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TwalkMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TwalkMsg) Newfid() uint32 { return getU32(m[11:15]) }
func (m TwalkMsg) Nwname() int    { return int(getU16(m[15:17])) }

// Wname returns the i'th path element of a Twalk request. It is only
// valid for 0 <= i < Nwname().
func (m TwalkMsg) Wname(i int) []byte {
	offset := 17
	var s []byte
	for n := 0; n <= i; n++ {
		var err error
		s, offset, err = parseString(m, offset)
		if err != nil {
			return nil
		}
	}
	return s
}

func (m RwalkMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RwalkMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RwalkMsg) Nwqid() int     { return int(getU16(m[7:9])) }
func (m RwalkMsg) Wqid(i int) Qid {
	q, _, _ := ParseQid(m, 9+i*QidLen)
	return q
}

func (m TopenMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TopenMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TopenMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TopenMsg) Mode() uint8    { return m[11] }

func (m RopenMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RopenMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RopenMsg) Qid() Qid       { q, _, _ := ParseQid(m, 7); return q }
func (m RopenMsg) Iounit() uint32 { return getU32(m[20:24]) }

func (m TcreateMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TcreateMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TcreateMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TcreateMsg) Name() []byte   { s, _, _ := parseString(m, 11); return s }
func (m TcreateMsg) Perm() uint32 {
	_, next, _ := parseString(m, 11)
	return getU32(m[next : next+4])
}
func (m TcreateMsg) Mode() uint8 {
	_, next, _ := parseString(m, 11)
	return m[next+4]
}

func (m RcreateMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RcreateMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RcreateMsg) Qid() Qid       { q, _, _ := ParseQid(m, 7); return q }
func (m RcreateMsg) Iounit() uint32 { return getU32(m[20:24]) }

func (m TreadMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TreadMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TreadMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TreadMsg) Offset() uint64 { return getU64(m[11:19]) }
func (m TreadMsg) Count() uint32  { return getU32(m[19:23]) }

func (m RreadMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RreadMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RreadMsg) Count() uint32  { return getU32(m[7:11]) }
func (m RreadMsg) Data() []byte   { return m[11 : 11+m.Count()] }

func (m TwriteMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TwriteMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TwriteMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TwriteMsg) Offset() uint64 { return getU64(m[11:19]) }
func (m TwriteMsg) Count() uint32  { return getU32(m[19:23]) }
func (m TwriteMsg) Data() []byte   { return m[23 : 23+m.Count()] }

func (m RwriteMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RwriteMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RwriteMsg) Count() uint32  { return getU32(m[7:11]) }

func (m TclunkMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TclunkMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TclunkMsg) Fid() uint32    { return getU32(m[7:11]) }

func (m RclunkMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RclunkMsg) Tag() uint16    { return rawMsg(m).Tag() }

func (m TremoveMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TremoveMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TremoveMsg) Fid() uint32    { return getU32(m[7:11]) }

func (m RremoveMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RremoveMsg) Tag() uint16    { return rawMsg(m).Tag() }

func (m TstatMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TstatMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TstatMsg) Fid() uint32    { return getU32(m[7:11]) }

func (m RstatMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RstatMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m RstatMsg) Stat() Stat     { s, _ := ParseStat(m[9:]); return s }

func (m TwstatMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m TwstatMsg) Tag() uint16    { return rawMsg(m).Tag() }
func (m TwstatMsg) Fid() uint32    { return getU32(m[7:11]) }
func (m TwstatMsg) Stat() Stat     { s, _ := ParseStat(m[13:]); return s }

func (m RwstatMsg) MsgType() uint8 { return rawMsg(m).MsgType() }
func (m RwstatMsg) Tag() uint16    { return rawMsg(m).Tag() }

// Decode validates and parses a single complete 9P message from buf
// (exactly one message; the transport has already framed it — see
// spec.md section 4.F). msizeCap, if nonzero, is the negotiated msize
// that caps the size of any message on this session.
func Decode(buf []byte, msizeCap uint32) (Msg, error) {
	hdr, err := ParseHeader(buf, msizeCap)
	if err != nil {
		return nil, err
	}
	if int(hdr.Size) != len(buf) {
		return nil, ErrMalformedMessage
	}
	minLen, ok := minBodyLen[hdr.Type]
	if !ok {
		return nil, ErrUnknownType
	}
	// minBodyLen already counts tag[2] (see its comments), so only
	// size[4]+type[1] are subtracted here — subtracting HeaderLen (which
	// itself includes tag[2]) would double-count the tag and reject
	// every minimum-size message.
	if len(buf)-5 < minLen {
		return nil, ErrMalformedMessage
	}
	m := rawMsg(buf)
	switch hdr.Type {
	case Tversion:
		return TversionMsg(m), validStrings(buf, 11, 1)
	case Rversion:
		return RversionMsg(m), validStrings(buf, 11, 1)
	case Tauth:
		return TauthMsg(m), validStrings(buf, 11, 2)
	case Rauth:
		return RauthMsg(m), nil
	case Tattach:
		return TattachMsg(m), validStrings(buf, 15, 2)
	case Rattach:
		return RattachMsg(m), nil
	case Rerror:
		return RerrorMsg(m), validStrings(buf, 7, 1)
	case Tflush:
		return TflushMsg(m), nil
	case Rflush:
		return RflushMsg(m), nil
	case Twalk:
		return decodeTwalk(m)
	case Rwalk:
		return decodeRwalk(m)
	case Topen:
		return TopenMsg(m), nil
	case Ropen:
		return RopenMsg(m), nil
	case Tcreate:
		return decodeTcreate(m)
	case Rcreate:
		return RcreateMsg(m), nil
	case Tread:
		return TreadMsg(m), nil
	case Rread:
		return decodeRread(m)
	case Twrite:
		return decodeTwrite(m)
	case Rwrite:
		return RwriteMsg(m), nil
	case Tclunk:
		return TclunkMsg(m), nil
	case Rclunk:
		return RclunkMsg(m), nil
	case Tremove:
		return TremoveMsg(m), nil
	case Rremove:
		return RremoveMsg(m), nil
	case Tstat:
		return TstatMsg(m), nil
	case Rstat:
		if _, err := ParseStat(buf[9:]); err != nil {
			return nil, err
		}
		return RstatMsg(m), nil
	case Twstat:
		if _, err := ParseStat(buf[13:]); err != nil {
			return nil, err
		}
		return TwstatMsg(m), nil
	case Rwstat:
		return RwstatMsg(m), nil
	}
	return nil, ErrUnknownType
}

// validStrings walks n length-prefixed strings starting at offset and
// confirms each one fits within buf without running past it.
func validStrings(buf []byte, offset, n int) error {
	for i := 0; i < n; i++ {
		_, next, err := parseString(buf, offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

func decodeTwalk(m rawMsg) (Msg, error) {
	n := int(getU16(m[15:17]))
	if n > MaxWalkElem {
		return nil, ErrWalkTooLong
	}
	if err := validStrings(m, 17, n); err != nil {
		return nil, err
	}
	return TwalkMsg(m), nil
}

func decodeRwalk(m rawMsg) (Msg, error) {
	n := int(getU16(m[7:9]))
	if 9+n*QidLen != len(m) {
		return nil, ErrMalformedMessage
	}
	return RwalkMsg(m), nil
}

func decodeRread(m rawMsg) (Msg, error) {
	count := getU32(m[7:11])
	if int(11+count) != len(m) {
		return nil, ErrMalformedMessage
	}
	return RreadMsg(m), nil
}

func decodeTwrite(m rawMsg) (Msg, error) {
	count := getU32(m[19:23])
	if int(23+count) != len(m) {
		return nil, ErrMalformedMessage
	}
	return TwriteMsg(m), nil
}

func decodeTcreate(m rawMsg) (Msg, error) {
	if err := validStrings(m, 11, 1); err != nil {
		return nil, err
	}
	_, next, _ := parseString(m, 11)
	if next+5 != len(m) {
		return nil, ErrMalformedMessage
	}
	return TcreateMsg(m), nil
}

