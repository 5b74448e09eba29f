package frame

import (
	"io"
	"os"
	"path/filepath"

	"github.com/nettf/nettf/internal/chunker"
	"github.com/nettf/nettf/internal/nettflog"
	"github.com/nettf/nettf/internal/sanitize"
	"github.com/nettf/nettf/internal/signal"
	"github.com/nettf/nettf/internal/wire"
	"github.com/sirupsen/logrus"
)

// dirPerm is the permission mode used for directories the receiver
// creates, per spec §6 ("0755 or the platform equivalent").
const dirPerm = 0o755

// RecvOptions configures a receive-side transfer.
type RecvOptions struct {
	Cancel   *signal.Controller
	Progress ProgressFunc
	// OnPrompt is not called by ReceiveFrame: the content loop polls
	// Cancel without a prompt callback, so a RequestedOnce request is
	// acknowledged silently and the transfer continues.
	OnPrompt func()
	// OnKind, if set, is called once the frame's magic has been
	// dispatched, before any filesystem side effects, so a caller can
	// label logs or metrics with the concrete frame kind.
	OnKind func(Kind)
}

// ReceiveFrame reads one complete frame from r, dispatching on its
// leading 4-byte magic (spec §4.4.6: the engine never consumes more
// than the magic before dispatching). An unrecognized magic fails with
// ErrUnknownFrame and performs no filesystem side effects (Property 9).
func ReceiveFrame(r io.Reader, opt RecvOptions) error {
	magicBuf := make([]byte, 4)
	if err := wire.RecvExact(r, magicBuf); err != nil {
		return err
	}
	kind, err := parseKind(wire.Uint32(magicBuf))
	if err != nil {
		nettflog.Error(logrus.Fields{"magic": magicBuf}, "unknown frame magic")
		return err
	}
	if opt.OnKind != nil {
		opt.OnKind(kind)
	}

	if kind.isTree() {
		return recvTree(r, kind, opt)
	}
	return recvFile(r, kind, opt)
}

func recvFile(r io.Reader, kind Kind, opt RecvOptions) error {
	hdr, err := readFileHeader(r, kind.hasTarget())
	if err != nil {
		return err
	}
	if hdr.FilenameLen == 0 {
		return wire.Wrap("recv file header", wire.ErrHeaderInvalid)
	}

	filename, err := readString(r, hdr.FilenameLen)
	if err != nil {
		return err
	}
	// Defense-in-depth: the sender only ever emits a basename, but the
	// receiver must not trust that (spec §9 open question).
	if err := sanitize.Filename(filename); err != nil {
		return err
	}

	targetDir := ""
	if kind.hasTarget() {
		raw, err := readString(r, hdr.TargetDirLen)
		if err != nil {
			return err
		}
		targetDir, err = sanitize.Path(raw)
		if err != nil {
			return err
		}
		if targetDir != "" {
			if err := os.MkdirAll(targetDir, dirPerm); err != nil {
				return wire.Wrap("mkdir target", joinFileError(err))
			}
		}
	}

	outPath := filename
	if targetDir != "" {
		outPath = filepath.Join(targetDir, filename)
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": outPath, "size": hdr.FileSize}, "frame start")

	out, err := os.Create(outPath)
	if err != nil {
		return wire.Wrap("create output file", joinFileError(err))
	}
	defer out.Close()

	st := chunker.New(int64(hdr.FileSize))
	if err := recvContent(r, out, int64(hdr.FileSize), st, opt.Cancel, opt.Progress); err != nil {
		nettflog.Error(logrus.Fields{"frame": kind.String(), "path": outPath, "err": err}, "frame failed")
		return err
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": outPath, "bytes": st.TotalBytes(), "elapsed": st.Elapsed().String()}, "frame complete")
	return nil
}

func recvTree(r io.Reader, kind Kind, opt RecvOptions) error {
	dhdr, err := readDirHeader(r, kind.hasTarget())
	if err != nil {
		return err
	}
	if dhdr.BasePathLen == 0 {
		return wire.Wrap("recv dir header", wire.ErrHeaderInvalid)
	}

	base, err := readString(r, dhdr.BasePathLen)
	if err != nil {
		return err
	}
	if err := sanitize.Filename(base); err != nil {
		// The base tree name travels like a filename: no separators.
		return err
	}
	if _, err := sanitize.Path(base); err != nil {
		// sanitize.Filename alone only rejects separators; base must
		// also pass the "..", leading-slash and length rule every other
		// received path string is held to (spec §9), or a base of ".."
		// would anchor the whole tree in the parent of the CWD.
		return err
	}

	anchor := base
	if kind.hasTarget() {
		raw, err := readString(r, dhdr.TargetDirLen)
		if err != nil {
			return err
		}
		targetDir, err := sanitize.Path(raw)
		if err != nil {
			return err
		}
		if targetDir != "" {
			anchor = filepath.Join(targetDir, base)
		}
	}
	if err := os.MkdirAll(anchor, dirPerm); err != nil {
		return wire.Wrap("mkdir anchor", joinFileError(err))
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "anchor": anchor, "files": dhdr.TotalFiles, "size": dhdr.TotalSize}, "frame start")

	st := chunker.New(int64(dhdr.TotalSize))

	switch kind {
	case KindDir:
		for {
			ehdr, err := readFileHeader(r, false)
			if err != nil {
				return err
			}
			if ehdr.isSentinel() {
				break
			}
			if err := recvTreeEntry(r, anchor, ehdr, st, opt); err != nil {
				nettflog.Error(logrus.Fields{"frame": kind.String(), "anchor": anchor, "err": err}, "frame failed")
				return err
			}
		}
	case KindTdir:
		for i := uint64(0); i < dhdr.TotalFiles; i++ {
			ehdr, err := readFileHeader(r, false)
			if err != nil {
				return err
			}
			if ehdr.isSentinel() {
				// A zero-length entry is a legitimate (if odd) empty
				// file only when its name is non-empty; a truly empty
				// header this early is an internally inconsistent
				// frame for TDIR, which never sends a sentinel.
				return wire.Wrap("recv tree entry", wire.ErrHeaderInvalid)
			}
			if err := recvTreeEntry(r, anchor, ehdr, st, opt); err != nil {
				nettflog.Error(logrus.Fields{"frame": kind.String(), "anchor": anchor, "err": err}, "frame failed")
				return err
			}
		}
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "anchor": anchor, "bytes": st.TotalBytes(), "elapsed": st.Elapsed().String()}, "frame complete")
	return nil
}

func recvTreeEntry(r io.Reader, anchor string, hdr fileHeader, st *chunker.State, opt RecvOptions) error {
	if hdr.FilenameLen == 0 {
		return wire.Wrap("recv tree entry header", wire.ErrHeaderInvalid)
	}
	relPath, err := readString(r, hdr.FilenameLen)
	if err != nil {
		return err
	}
	clean, err := sanitize.Path(relPath)
	if err != nil {
		return err
	}
	if clean == "" {
		return wire.Wrap("recv tree entry", wire.ErrPathRejected)
	}

	outPath := filepath.Join(anchor, clean)
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return wire.Wrap("mkdir intermediate", joinFileError(err))
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return wire.Wrap("create entry file", joinFileError(err))
	}
	defer out.Close()

	return recvContent(r, out, int64(hdr.FileSize), st, opt.Cancel, opt.Progress)
}
