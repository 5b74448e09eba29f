// Package sanitize implements the receiver-side path-sanitization
// contract (spec §4.4.1). It is the engine's security boundary: every
// received target_dir string and every relative entry path inside a
// tree must pass through Path before touching the filesystem.
package sanitize

import (
	"strings"

	"github.com/nettf/nettf/internal/wire"
)

// MaxPathLen is the maximum accepted length for a sanitized path
// string, comfortably above the >=4096-byte buffer the spec
// recommends.
const MaxPathLen = 65536

// Path applies the sanitization rule to s, returning the cleaned,
// CWD-relative path. The rule, applied identically to target_dir
// strings and tree entry paths:
//
//  1. empty string -> "" (caller treats this as "no redirect" / "current directory")
//  2. fail if s contains the two-character substring ".." anywhere
//  3. fail if the first byte is '/'
//  4. strip further leading '/' bytes
//  5. fail if len(s) exceeds MaxPathLen
//
// The ".." check is a substring match, not a path-component match: it
// intentionally also rejects otherwise-legitimate names like
// "file..txt". This is documented imprecision inherited from the
// specification; callers must not loosen it.
func Path(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if len(s) > MaxPathLen {
		return "", wire.Wrap("sanitize", wire.ErrPathRejected)
	}
	if strings.Contains(s, "..") {
		return "", wire.Wrap("sanitize", wire.ErrPathRejected)
	}
	if s[0] == '/' {
		return "", wire.Wrap("sanitize", wire.ErrPathRejected)
	}
	return strings.TrimLeft(s, "/"), nil
}

// Filename validates a single-file (non-tree) filename for the
// defense-in-depth rule: the receiver refuses any filename containing
// a path separator, even though the sender only ever emits a basename.
func Filename(name string) error {
	if name == "" {
		return wire.Wrap("sanitize", wire.ErrPathRejected)
	}
	if strings.ContainsAny(name, "/\\") {
		return wire.Wrap("sanitize", wire.ErrPathRejected)
	}
	return nil
}
