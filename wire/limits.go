package wire

// MaxWalkElem is the maximum allowed number of path elements in a
// Twalk request (spec section 4.E).
const MaxWalkElem = 16

// MaxFilenameLen bounds the length in bytes of a single path element,
// mirroring styxproto.MaxFilenameLen.
const MaxFilenameLen = 512

// MaxUidLen bounds uname/uid/gid/muid string fields.
const MaxUidLen = 45

// MaxAttachLen bounds the aname field of Tattach/Tauth.
const MaxAttachLen = 255

// MaxErrorLen bounds the Ename field of an Rerror.
const MaxErrorLen = 512

// minBodyLen gives, for each message type, the smallest legal body
// length (the message with every variable-length field empty or
// zero), mirroring styxproto's minSizeLUT. It is keyed by the message
// type byte; 106 (Terror, which the 9P2000 wire format never sends)
// has no entry.
var minBodyLen = map[uint8]int{
	Tversion: 2 + 4,             // tag[2] msize[4] + version[s]
	Rversion: 2 + 4,             // tag[2] msize[4] + version[s]
	Tauth:    2 + 4,             // tag[2] afid[4] + uname[s] aname[s]
	Rauth:    2 + QidLen,        // tag[2] aqid[13]
	Tattach:  2 + 4 + 4,         // tag[2] fid[4] afid[4] + uname[s] aname[s]
	Rattach:  2 + QidLen,        // tag[2] qid[13]
	Rerror:   2,                 // tag[2] + ename[s]
	Tflush:   2 + 2,             // tag[2] oldtag[2]
	Rflush:   2,                 // tag[2]
	Twalk:    2 + 4 + 4 + 2,     // tag[2] fid[4] newfid[4] nwname[2] + names
	Rwalk:    2 + 2,             // tag[2] nwqid[2] + qids
	Topen:    2 + 4 + 1,         // tag[2] fid[4] mode[1]
	Ropen:    2 + QidLen + 4,    // tag[2] qid[13] iounit[4]
	Tcreate:  2 + 4 + 4 + 1,     // tag[2] fid[4] perm[4] mode[1] + name[s]
	Rcreate:  2 + QidLen + 4,    // tag[2] qid[13] iounit[4]
	Tread:    2 + 4 + 8 + 4,     // tag[2] fid[4] offset[8] count[4]
	Rread:    2 + 4,             // tag[2] count[4] + data
	Twrite:   2 + 4 + 8 + 4,     // tag[2] fid[4] offset[8] count[4] + data
	Rwrite:   2 + 4,             // tag[2] count[4]
	Tclunk:   2 + 4,             // tag[2] fid[4]
	Rclunk:   2,                 // tag[2]
	Tremove:  2 + 4,             // tag[2] fid[4]
	Rremove:  2,                 // tag[2]
	Tstat:    2 + 4,             // tag[2] fid[4]
	Rstat:    2 + 2,             // tag[2] + stat[s]
	Twstat:   2 + 4 + 2,         // tag[2] fid[4] + stat[s]
	Rwstat:   2,                 // tag[2]
}

// ValidType reports whether t names a message type this codec knows
// how to decode.
func ValidType(t uint8) bool {
	_, ok := minBodyLen[t]
	return ok
}
