package frame

import (
	"io"

	"github.com/nettf/nettf/internal/wire"
)

// fileHeader is the 16- or 24-byte header following a FILE/TARG magic,
// and also the per-entry header inside a directory tree (which is
// always the 16-byte form: no target field within the tree body).
type fileHeader struct {
	FileSize     uint64
	FilenameLen  uint64
	TargetDirLen uint64 // only meaningful when withTarget is true
}

func (h fileHeader) encode(withTarget bool) []byte {
	n := 16
	if withTarget {
		n = 24
	}
	buf := make([]byte, n)
	wire.PutUint64(buf[0:8], h.FileSize)
	wire.PutUint64(buf[8:16], h.FilenameLen)
	if withTarget {
		wire.PutUint64(buf[16:24], h.TargetDirLen)
	}
	return buf
}

func readFileHeader(r io.Reader, withTarget bool) (fileHeader, error) {
	n := 16
	if withTarget {
		n = 24
	}
	buf := make([]byte, n)
	if err := wire.RecvExact(r, buf); err != nil {
		return fileHeader{}, err
	}
	h := fileHeader{
		FileSize:    wire.Uint64(buf[0:8]),
		FilenameLen: wire.Uint64(buf[8:16]),
	}
	if withTarget {
		h.TargetDirLen = wire.Uint64(buf[16:24])
	}
	return h, nil
}

// isSentinel reports whether h is the DIR end-of-tree sentinel: both
// file_size and filename_len are zero.
func (h fileHeader) isSentinel() bool {
	return h.FileSize == 0 && h.FilenameLen == 0
}

// dirHeader is the 24- or 32-byte header following a DIR/TDIR magic.
type dirHeader struct {
	TotalFiles   uint64
	TotalSize    uint64
	BasePathLen  uint64
	TargetDirLen uint64 // only meaningful when withTarget is true
}

func (h dirHeader) encode(withTarget bool) []byte {
	n := 24
	if withTarget {
		n = 32
	}
	buf := make([]byte, n)
	wire.PutUint64(buf[0:8], h.TotalFiles)
	wire.PutUint64(buf[8:16], h.TotalSize)
	wire.PutUint64(buf[16:24], h.BasePathLen)
	if withTarget {
		wire.PutUint64(buf[24:32], h.TargetDirLen)
	}
	return buf
}

func readDirHeader(r io.Reader, withTarget bool) (dirHeader, error) {
	n := 24
	if withTarget {
		n = 32
	}
	buf := make([]byte, n)
	if err := wire.RecvExact(r, buf); err != nil {
		return dirHeader{}, err
	}
	h := dirHeader{
		TotalFiles:  wire.Uint64(buf[0:8]),
		TotalSize:   wire.Uint64(buf[8:16]),
		BasePathLen: wire.Uint64(buf[16:24]),
	}
	if withTarget {
		h.TargetDirLen = wire.Uint64(buf[24:32])
	}
	return h, nil
}

// readString reads n bytes, allocating a fresh buffer, and returns it
// decoded as UTF-8 bytes verbatim (the wire format has no NUL
// terminator; the declared length is authoritative). A zero-length
// string is returned as "" without an allocation or a wire read.
func readString(r io.Reader, n uint64) (string, error) {
	if n == 0 {
		return "", nil
	}
	if n > sanitizeMaxNameLen {
		return "", wire.Wrap("recv name", wire.ErrResourceExhausted)
	}
	buf := make([]byte, n)
	if err := wire.RecvExact(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// sanitizeMaxNameLen bounds how large a filename/path length field the
// engine will allocate for, so a corrupt or hostile peer cannot force
// an unbounded allocation (spec's ResourceExhausted failure mode).
const sanitizeMaxNameLen = 1 << 20
