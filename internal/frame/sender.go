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

// SendOptions configures a send-side transfer. All fields are
// optional; the zero value runs with no cancellation support and no
// progress reporting.
type SendOptions struct {
	Cancel   *signal.Controller
	Progress ProgressFunc
	// OnPrompt is not called by SendFile or SendDir: the content loop
	// polls Cancel without a prompt callback, so a RequestedOnce
	// request is acknowledged silently and the transfer continues.
	OnPrompt func()
}

// SendFile sends sourcePath as a single FILE (or TARG, if targetDir is
// non-empty) frame over w. It stats and opens the source before any
// wire I/O, so a FileError never leaves a half-written frame on the
// stream, and it sanitizes targetDir before any socket I/O at all
// (spec §4.4.2 point 3: "abort before opening socket I/O").
func SendFile(w io.Writer, sourcePath, targetDir string, opt SendOptions) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return wire.Wrap("stat source", joinFileError(err))
	}
	if !info.Mode().IsRegular() {
		return wire.Wrap("stat source", joinFileError(os.ErrInvalid))
	}

	cleanTarget := ""
	kind := KindFile
	if targetDir != "" {
		kind = KindTarg
		cleanTarget, err = sanitize.Path(targetDir)
		if err != nil {
			return err
		}
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return wire.Wrap("open source", joinFileError(err))
	}
	defer f.Close()

	basename := filepath.Base(sourcePath)
	if err := sanitize.Filename(basename); err != nil {
		return err
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": sourcePath, "size": info.Size()}, "frame start")

	if err := writeMagic(w, kind); err != nil {
		return err
	}
	hdr := fileHeader{FileSize: uint64(info.Size()), FilenameLen: uint64(len(basename))}
	if kind.hasTarget() {
		hdr.TargetDirLen = uint64(len(cleanTarget))
	}
	if err := wire.SendExact(w, hdr.encode(kind.hasTarget())); err != nil {
		return err
	}
	if err := wire.SendExact(w, []byte(basename)); err != nil {
		return err
	}
	if kind.hasTarget() && len(cleanTarget) > 0 {
		if err := wire.SendExact(w, []byte(cleanTarget)); err != nil {
			return err
		}
	}

	st := chunker.New(info.Size())
	if err := sendContent(w, f, info.Size(), st, opt.Cancel, opt.Progress); err != nil {
		nettflog.Error(logrus.Fields{"frame": kind.String(), "path": sourcePath, "err": err}, "frame failed")
		return err
	}

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": sourcePath, "bytes": st.TotalBytes(), "elapsed": st.Elapsed().String()}, "frame complete")
	return nil
}

// SendDir sends sourceDir as a whole directory tree: DIR, or TDIR if
// targetDir is non-empty. It snapshots the tree once (spec §9) and
// reuses a single AdaptiveState across every entry so the link-rate
// estimate converges over the whole transfer rather than resetting
// per file.
func SendDir(w io.Writer, sourceDir, targetDir string, opt SendOptions) error {
	cleanTarget := ""
	kind := KindDir
	var err error
	if targetDir != "" {
		kind = KindTdir
		cleanTarget, err = sanitize.Path(targetDir)
		if err != nil {
			return err
		}
	}

	entries, totalSize, err := snapshotTree(sourceDir)
	if err != nil {
		return err
	}
	basename := filepath.Base(filepath.Clean(sourceDir))

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": sourceDir, "files": len(entries), "size": totalSize}, "frame start")

	if err := writeMagic(w, kind); err != nil {
		return err
	}
	dhdr := dirHeader{TotalFiles: uint64(len(entries)), TotalSize: uint64(totalSize), BasePathLen: uint64(len(basename))}
	if kind.hasTarget() {
		dhdr.TargetDirLen = uint64(len(cleanTarget))
	}
	if err := wire.SendExact(w, dhdr.encode(kind.hasTarget())); err != nil {
		return err
	}
	if err := wire.SendExact(w, []byte(basename)); err != nil {
		return err
	}
	if kind.hasTarget() && len(cleanTarget) > 0 {
		if err := wire.SendExact(w, []byte(cleanTarget)); err != nil {
			return err
		}
	}

	st := chunker.New(totalSize)
	for _, e := range entries {
		if err := sendTreeEntry(w, e, st, opt); err != nil {
			nettflog.Error(logrus.Fields{"frame": kind.String(), "entry": e.RelPath, "err": err}, "frame failed")
			return err
		}
	}

	if kind == KindDir {
		// Legacy DIR termination: a zero/zero sentinel header.
		sentinel := fileHeader{}
		if err := wire.SendExact(w, sentinel.encode(false)); err != nil {
			return err
		}
	}
	// TDIR terminates implicitly: the receiver counts total_files
	// entries and reads no sentinel.

	nettflog.Info(logrus.Fields{"frame": kind.String(), "path": sourceDir, "bytes": st.TotalBytes(), "elapsed": st.Elapsed().String()}, "frame complete")
	return nil
}

func sendTreeEntry(w io.Writer, e treeEntry, st *chunker.State, opt SendOptions) error {
	f, err := os.Open(e.AbsPath)
	if err != nil {
		return wire.Wrap("open entry", joinFileError(err))
	}
	defer f.Close()

	hdr := fileHeader{FileSize: uint64(e.Size), FilenameLen: uint64(len(e.RelPath))}
	if err := wire.SendExact(w, hdr.encode(false)); err != nil {
		return err
	}
	if err := wire.SendExact(w, []byte(e.RelPath)); err != nil {
		return err
	}
	return sendContent(w, f, e.Size, st, opt.Cancel, opt.Progress)
}

func writeMagic(w io.Writer, k Kind) error {
	buf := make([]byte, 4)
	wire.PutUint32(buf, uint32(k))
	return wire.SendExact(w, buf)
}
