// Package wire implements the 9P2000 wire codec: framing, encoding and
// decoding of the message set a 9P server needs. It is pure — no I/O,
// no allocation beyond the buffers the caller supplies — and reports
// bytes consumed or produced the way the reference implementation's
// ninep_parse_* / ninep_write_* helpers do (original_source/src/proto.c),
// generalized here into Go types the way styxproto (the droyo/styx
// package this is modeled on) wraps message bytes with accessor methods
// instead of copying fields into structs.
package wire

// Message type constants, the Tcode/Rcode values from the 9P2000
// wire format (spec section 6). Named exactly as styxproto names its
// unexported msgT* constants, but exported here since this package's
// whole purpose is to be the public codec.
const (
	Tversion uint8 = 100
	Rversion uint8 = 101
	Tauth    uint8 = 102
	Rauth    uint8 = 103
	Tattach  uint8 = 104
	Rattach  uint8 = 105
	Rerror   uint8 = 107
	Tflush   uint8 = 108
	Rflush   uint8 = 109
	Twalk    uint8 = 110
	Rwalk    uint8 = 111
	Topen    uint8 = 112
	Ropen    uint8 = 113
	Tcreate  uint8 = 114
	Rcreate  uint8 = 115
	Tread    uint8 = 116
	Rread    uint8 = 117
	Twrite   uint8 = 118
	Rwrite   uint8 = 119
	Tclunk   uint8 = 120
	Rclunk   uint8 = 121
	Tremove  uint8 = 122
	Rremove  uint8 = 123
	Tstat    uint8 = 124
	Rstat    uint8 = 125
	Twstat   uint8 = 126
	Rwstat   uint8 = 127
)

// NoTag is the reserved tag value that accompanies the Tversion
// handshake, before any tag has been negotiated.
const NoTag uint16 = 0xFFFF

// NoFid marks "no auth fid" in a Tattach request.
const NoFid uint32 = 0xFFFFFFFF

// Qid type bits (high bit marks directory; spec section 6).
const (
	QTDIR    uint8 = 0x80
	QTAPPEND uint8 = 0x40
	QTEXCL   uint8 = 0x20
	QTMOUNT  uint8 = 0x10
	QTAUTH   uint8 = 0x08
	QTTMP    uint8 = 0x04
	QTFILE   uint8 = 0x00
)

// Open mode bits (spec section 6). The low two bits select an access
// mode; OTRUNC and ORCLOSE are independent flags.
const (
	OREAD  uint8 = 0
	OWRITE uint8 = 1
	ORDWR  uint8 = 2
	OEXEC  uint8 = 3

	OTRUNC  uint8 = 0x10
	ORCLOSE uint8 = 0x40

	omodeMask = 0x03
)

// Mode returns the low-two-bit access mode of an open mode byte,
// stripping the OTRUNC/ORCLOSE flags.
func Mode(m uint8) uint8 { return m & omodeMask }

// HeaderLen is the size, in bytes, of a message header:
// size[4] type[1] tag[2].
const HeaderLen = 7

// QidLen is the fixed wire size of a Qid: type[1] version[4] path[8].
const QidLen = 13

// A Qid is a 13-byte slice holding a file's stable server-side
// identity. Like styxproto.Qid, it is a thin view over wire bytes —
// no copy is made when a Qid is read out of a decoded message.
type Qid []byte

func (q Qid) Type() uint8     { return q[0] }
func (q Qid) Version() uint32 { return getU32(q[1:5]) }
func (q Qid) Path() uint64    { return getU64(q[5:13]) }

// NewQid encodes a Qid into buf (which must be at least QidLen bytes)
// and returns the resulting view.
func NewQid(buf []byte, qtype uint8, version uint32, path uint64) (Qid, error) {
	if len(buf) < QidLen {
		return nil, ErrShortBuffer
	}
	buf[0] = qtype
	putU32(buf[1:5], version)
	putU64(buf[5:13], path)
	return Qid(buf[:QidLen]), nil
}

func getU16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func getU64(b []byte) uint64 {
	return uint64(getU32(b[:4])) | uint64(getU32(b[4:8]))<<32
}

func putU16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putU32(b []byte, v uint32) {
	putU16(b[:2], uint16(v))
	putU16(b[2:4], uint16(v>>16))
}
func putU64(b []byte, v uint64) {
	putU32(b[:4], uint32(v))
	putU32(b[4:8], uint32(v>>32))
}
