// Package config collects the configuration surface of a 9p4z server
// into one validated struct, the way styx.Server collects its own
// option fields.
package config

import "fmt"

// MinMessageSize is the lowest msize a session will ever negotiate,
// per the 9P2000 manual.
const MinMessageSize = 128

// DefaultVersion is the protocol version string advertised by a
// server that understands 9P2000.
const DefaultVersion = "9P2000"

// Config holds every knob exposed by the framework. A zero Config is
// not valid; use Default and override fields, then call Validate.
type Config struct {
	// MaxMessageSize is the upper bound for the negotiated msize. Must
	// be >= MinMessageSize.
	MaxMessageSize uint32

	// MaxFids is the per-session fid table capacity.
	MaxFids int

	// MaxTags is the per-session in-flight tag table capacity.
	MaxTags int

	// MaxSessions is the pool's slot count.
	MaxSessions int

	// VersionString is the protocol name advertised in Rversion.
	// Defaults to "9P2000".
	VersionString string

	// AuthRequired controls whether Tauth is honored (true) or
	// refused with "authentication not required" (false).
	AuthRequired bool

	// RxBufSize is the size, in bytes, of the per-session receive
	// buffer carved out of the pool's preallocated arena. Defaults to
	// MaxMessageSize if zero.
	RxBufSize int
}

// Default returns a Config with conservative defaults suitable for a
// memory-constrained device.
func Default() Config {
	return Config{
		MaxMessageSize: 8192,
		MaxFids:        32,
		MaxTags:        16,
		MaxSessions:    4,
		VersionString:  DefaultVersion,
		AuthRequired:   false,
	}
}

// Validate checks the bounds the specification places on the
// configuration surface. It does not mutate c.
func (c Config) Validate() error {
	if c.MaxMessageSize < MinMessageSize {
		return fmt.Errorf("config: max message size %d below minimum %d", c.MaxMessageSize, MinMessageSize)
	}
	if c.MaxFids <= 0 {
		return fmt.Errorf("config: max fids must be positive, got %d", c.MaxFids)
	}
	if c.MaxTags <= 0 || c.MaxTags > 0xffff {
		return fmt.Errorf("config: max tags out of range, got %d", c.MaxTags)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("config: max sessions must be positive, got %d", c.MaxSessions)
	}
	if c.VersionString == "" {
		return fmt.Errorf("config: version string must not be empty")
	}
	return nil
}

// EffectiveRxBufSize returns RxBufSize if set, otherwise MaxMessageSize.
func (c Config) EffectiveRxBufSize() int {
	if c.RxBufSize > 0 {
		return c.RxBufSize
	}
	return int(c.MaxMessageSize)
}

// NegotiateMsize implements the min(client, server) rule from spec.md
// section 8: the negotiated msize is exactly min(client_msize,
// server_max). ok is false if that value falls below
// MinMessageSize, in which case the caller must reject the Tversion
// rather than negotiate a too-small msize.
func (c Config) NegotiateMsize(clientMsize uint32) (msize uint32, ok bool) {
	msize = clientMsize
	if c.MaxMessageSize < msize {
		msize = c.MaxMessageSize
	}
	return msize, msize >= MinMessageSize
}
