package frame

import (
	"io/fs"
	"path/filepath"

	"github.com/nettf/nettf/internal/wire"
)

// treeEntry is one regular file discovered during the count pass of a
// directory-tree send.
type treeEntry struct {
	RelPath string // forward-slash relative path from the tree base
	AbsPath string // absolute path to open for reading
	Size    int64
}

// snapshotTree walks root once, recording every regular file's
// relative path and size. The specification requires the stream pass
// to use this same snapshot rather than re-walking, so that the
// total_files/total_size declared in the header stay consistent even
// if the source tree mutates between the count pass and the stream
// pass (spec §9, "Cross-pass mutation of the source tree").
//
// Non-regular entries (symlinks, sockets, devices) are skipped
// silently, matching spec §4.4.4 point 6. Directories themselves never
// appear in the returned slice; empty directories are not preserved on
// the receiver (spec §9).
func snapshotTree(root string) (entries []treeEntry, totalSize int64, err error) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		size := info.Size()
		entries = append(entries, treeEntry{RelPath: rel, AbsPath: path, Size: size})
		totalSize += size
		return nil
	})
	if walkErr != nil {
		return nil, 0, wire.Wrap("walk source tree", joinFileError(walkErr))
	}
	return entries, totalSize, nil
}

func joinFileError(err error) error {
	return &fileError{cause: err}
}

type fileError struct{ cause error }

func (e *fileError) Error() string { return e.cause.Error() }
func (e *fileError) Unwrap() error { return e.cause }
func (e *fileError) Is(target error) bool {
	return target == wire.ErrFileError
}
