package wire

// parseError is a string-based error type, the same idiom
// styxproto/errors.go uses for its sentinel parse errors.
type parseError string

func (e parseError) Error() string { return string(e) }

// Sentinel errors returned by the codec. ErrMalformedHeader and
// ErrMalformedMessage correspond directly to the MalformedHeader /
// MalformedMessage error kinds in spec.md section 7.
var (
	ErrMalformedHeader  = parseError("bad message")
	ErrMalformedMessage = parseError("bad message")
	ErrShortBuffer      = parseError("buffer too small")
	ErrUnknownType      = parseError("unknown message type")
	ErrStringTooLong    = parseError("string field too long")
	ErrWalkTooLong      = parseError("walk depth exceeds limit")
)
