package fs

// Kind enumerates the backend error kinds in spec.md section 7. Each
// one maps to a stable Rerror wire string.
type Kind int

const (
	_ Kind = iota
	KindMalformedMessage
	KindUnknownType
	KindBadVersionOrder
	KindFidInUse
	KindUnknownFid
	KindNoFids
	KindNoTags
	KindWalkTooLong
	KindBadName
	KindNotFound
	KindIsDir
	KindNotDir
	KindAlreadyOpen
	KindBadOpenMode
	KindBadDirOffset
	KindDenied
	KindExists
	KindNoSpace
	KindNotEmpty
	KindAuthRequired
	KindAuthNotRequired
)

// messages gives the stable wire string for each Kind (spec.md
// section 7's table), the same "one sentinel string per error kind"
// idiom styxproto/errors.go uses for its own parse errors.
var messages = map[Kind]string{
	KindMalformedMessage: "bad message",
	KindUnknownType:      "unknown message type",
	KindBadVersionOrder:  "version not negotiated",
	KindFidInUse:         "fid in use",
	KindUnknownFid:       "unknown fid",
	KindNoFids:           "no free fids",
	KindNoTags:           "no free tags",
	KindWalkTooLong:      "walk depth exceeds limit",
	KindBadName:          "illegal name",
	KindNotFound:         "file does not exist",
	KindIsDir:            "is a directory",
	KindNotDir:           "not a directory",
	KindAlreadyOpen:      "fid already open",
	KindBadOpenMode:      "bad open mode",
	KindBadDirOffset:     "bad directory offset",
	KindDenied:           "permission denied",
	KindExists:           "file exists",
	KindNoSpace:          "no space",
	KindNotEmpty:         "directory not empty",
	KindAuthRequired:     "authentication required",
	KindAuthNotRequired:  "authentication not required",
}

// unknownMessage is what an unrecognized backend error kind maps to
// (spec.md section 7: "unknown backend error codes are reported as
// 'i/o error'").
const unknownMessage = "i/o error"

// Error is the error type every fs.FS method returns for protocol-
// visible failures. It carries a Kind and an optional free-form
// detail appended to the wire message for diagnostics.
type Error struct {
	Kind   Kind
	Detail string
}

// NewError constructs an Error of the given kind, with an optional
// detail string (pass "" for none).
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func (e *Error) Error() string {
	msg, ok := messages[e.Kind]
	if !ok {
		msg = unknownMessage
	}
	if e.Detail == "" {
		return msg
	}
	return msg + ": " + e.Detail
}

// WireMessage returns the stable Rerror string for err: the Kind's
// message if err is an *Error, or "i/o error" for anything else,
// matching spec.md section 7's propagation rule for unrecognized
// backend errors.
func WireMessage(err error) string {
	if err == nil {
		return ""
	}
	if fe, ok := err.(*Error); ok {
		if msg, ok := messages[fe.Kind]; ok {
			return msg
		}
		return unknownMessage
	}
	return unknownMessage
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	fe, ok := err.(*Error)
	return ok && fe.Kind == kind
}
