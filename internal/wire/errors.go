// Package wire implements the lowest layer of the NETTF protocol engine:
// full-length reads/writes over a TCP stream (the Byte Courier) and
// big-endian packing of the fixed-width integers that appear in every
// frame header (the Endian Codec).
package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in the protocol's failure-semantics
// table. Callers should use errors.Is against these, not string
// matching, since a *FrameError always wraps one of them.
var (
	// ErrTransportError is an underlying socket error.
	ErrTransportError = errors.New("transport error")
	// ErrPeerClosed means the peer closed the connection mid-frame.
	ErrPeerClosed = errors.New("peer closed connection")
	// ErrFileError is a local filesystem error (open/stat/read/write/mkdir).
	ErrFileError = errors.New("local file error")
	// ErrPathRejected means a sanitization rule was violated.
	ErrPathRejected = errors.New("path rejected")
	// ErrUnknownFrame means the magic did not match any known frame type.
	ErrUnknownFrame = errors.New("unknown frame magic")
	// ErrInterrupted means cancellation escalated to Forced.
	ErrInterrupted = errors.New("transfer interrupted")
	// ErrShortRead means a source file yielded fewer bytes than its
	// declared size.
	ErrShortRead = errors.New("short read from source file")
	// ErrHeaderInvalid means a header was internally inconsistent.
	ErrHeaderInvalid = errors.New("invalid frame header")
	// ErrResourceExhausted means an allocation failed.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// FrameError wraps one of the sentinel errors above with context about
// where in the transfer it occurred. Every error that escapes the
// engine is a *FrameError so callers can both log a stable taxonomy
// name and inspect the cause.
type FrameError struct {
	Op    string // the operation in progress, e.g. "recv header", "mkdir"
	Cause error  // one of the Err* sentinels, possibly further wrapped
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("nettf: %s: %v", e.Op, e.Cause)
}

func (e *FrameError) Unwrap() error {
	return e.Cause
}

// Wrap builds a *FrameError tagging err (which should be, or wrap, one
// of the Err* sentinels) with the operation name op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FrameError{Op: op, Cause: err}
}
