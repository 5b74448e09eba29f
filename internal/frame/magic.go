// Package frame implements the Frame Engine: magic dispatch, header
// parse/emit, path sanitization wiring, recursive directory
// walk/reconstruct, chunked content streaming, and interruption
// polling. It is the 80%-share component of the protocol engine and
// the one all four frame variants share their lower layers through.
package frame

import "github.com/nettf/nettf/internal/wire"

// Kind identifies one of the four frame variants by its 4-byte magic.
type Kind uint32

// The four frame-type tags, transmitted as a big-endian uint32.
const (
	KindFile Kind = 0x46494C45 // "FILE" - single file
	KindDir  Kind = 0x44495220 // "DIR " - directory tree
	KindTarg Kind = 0x54415247 // "TARG" - file + target subdir
	KindTdir Kind = 0x54444952 // "TDIR" - tree + target subdir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "FILE"
	case KindDir:
		return "DIR"
	case KindTarg:
		return "TARG"
	case KindTdir:
		return "TDIR"
	default:
		return "UNKNOWN"
	}
}

// hasTarget reports whether the frame kind carries a target_dir_len
// field and trailing target-directory bytes.
func (k Kind) hasTarget() bool {
	return k == KindTarg || k == KindTdir
}

// isTree reports whether the frame kind is a directory-tree variant.
func (k Kind) isTree() bool {
	return k == KindDir || k == KindTdir
}

// parseKind maps a wire magic to a Kind, failing with ErrUnknownFrame
// for anything else (Property 9: magic misrouting has zero filesystem
// side effects — callers must not touch the filesystem before calling
// this).
func parseKind(magic uint32) (Kind, error) {
	switch Kind(magic) {
	case KindFile, KindDir, KindTarg, KindTdir:
		return Kind(magic), nil
	default:
		return 0, wire.Wrap("dispatch", wire.ErrUnknownFrame)
	}
}
