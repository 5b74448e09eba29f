package frame

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nettf/nettf/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCwd runs fn with the process working directory set to dir,
// restoring the original afterward. The receiver always writes
// relative to the CWD, so every round-trip test needs this.
func withCwd(t *testing.T, dir string, fn func()) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() {
		require.NoError(t, os.Chdir(orig))
	}()
	fn()
}

// S1: a 10-byte file named hello.txt round-trips exactly.
func TestSendRecvFileRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("0123456789"), 0o644))

	var wireBuf bytes.Buffer
	require.NoError(t, SendFile(&wireBuf, src, "", SendOptions{}))

	// Wire prefix check: magic, then size=10, then fnlen=9.
	assert.Equal(t, []byte{0x46, 0x49, 0x4C, 0x45}, wireBuf.Bytes()[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0x0A}, wireBuf.Bytes()[4:12])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0x09}, wireBuf.Bytes()[12:20])

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	got, err := os.ReadFile(filepath.Join(dstDir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
}

// S2: TARG with nested target out/sub.
func TestSendRecvTargNestedTarget(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte{0xFF}, 0o644))

	var wireBuf bytes.Buffer
	require.NoError(t, SendFile(&wireBuf, src, "out/sub", SendOptions{}))
	assert.Equal(t, []byte{0x54, 0x41, 0x52, 0x47}, wireBuf.Bytes()[0:4])

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	got, err := os.ReadFile(filepath.Join(dstDir, "out", "sub", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF}, got)
}

func buildTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	tree := filepath.Join(root, "root")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "d", "e"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "x"), []byte("01"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "d", "y"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "d", "e", "z"), []byte("012"), 0o644))
	return tree
}

// S3: DIR tree with sentinel termination.
func TestSendRecvDirTree(t *testing.T) {
	tree := buildTestTree(t)

	var wireBuf bytes.Buffer
	require.NoError(t, SendDir(&wireBuf, tree, "", SendOptions{}))
	assert.Equal(t, []byte("DIR "), wireBuf.Bytes()[0:4])

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	assertFile(t, filepath.Join(dstDir, "root", "x"), "01")
	assertFile(t, filepath.Join(dstDir, "root", "d", "y"), "")
	assertFile(t, filepath.Join(dstDir, "root", "d", "e", "z"), "012")
}

// S4: TDIR with target and count-based termination (no sentinel).
func TestSendRecvTDIR(t *testing.T) {
	tree := buildTestTree(t)

	var wireBuf bytes.Buffer
	require.NoError(t, SendDir(&wireBuf, tree, "dst", SendOptions{}))
	assert.Equal(t, []byte("TDIR"), wireBuf.Bytes()[0:4])

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	assertFile(t, filepath.Join(dstDir, "dst", "root", "x"), "01")
	assertFile(t, filepath.Join(dstDir, "dst", "root", "d", "e", "z"), "012")
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

// S5: PathRejected on an absolute target; no files created.
func TestPathRejectedAbsoluteTarget(t *testing.T) {
	var wireBuf bytes.Buffer
	require.NoError(t, writeMagic(&wireBuf, KindTarg))
	hdr := fileHeader{FileSize: 1, FilenameLen: 1, TargetDirLen: 4}
	require.NoError(t, wire.SendExact(&wireBuf, hdr.encode(true)))
	require.NoError(t, wire.SendExact(&wireBuf, []byte("a")))
	require.NoError(t, wire.SendExact(&wireBuf, []byte("/etc")))
	require.NoError(t, wire.SendExact(&wireBuf, []byte{0xFF}))

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		err := ReceiveFrame(&wireBuf, RecvOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, wire.ErrPathRejected))
	})

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// S6: PathRejected on a traversal sequence anywhere in the target.
func TestPathRejectedTraversal(t *testing.T) {
	var wireBuf bytes.Buffer
	require.NoError(t, writeMagic(&wireBuf, KindTarg))
	target := "a/../../b"
	hdr := fileHeader{FileSize: 1, FilenameLen: 1, TargetDirLen: uint64(len(target))}
	require.NoError(t, wire.SendExact(&wireBuf, hdr.encode(true)))
	require.NoError(t, wire.SendExact(&wireBuf, []byte("a")))
	require.NoError(t, wire.SendExact(&wireBuf, []byte(target)))
	require.NoError(t, wire.SendExact(&wireBuf, []byte{0xFF}))

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		err := ReceiveFrame(&wireBuf, RecvOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, wire.ErrPathRejected))
	})

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// A tree base name of ".." must be rejected just like a traversal
// sequence in a target_dir: otherwise the anchor directory resolves
// to the parent of the CWD, violating the "never write outside the
// CWD" invariant.
func TestPathRejectedTraversalBase(t *testing.T) {
	var wireBuf bytes.Buffer
	require.NoError(t, writeMagic(&wireBuf, KindDir))
	base := ".."
	dhdr := dirHeader{TotalFiles: 0, TotalSize: 0, BasePathLen: uint64(len(base))}
	require.NoError(t, wire.SendExact(&wireBuf, dhdr.encode(false)))
	require.NoError(t, wire.SendExact(&wireBuf, []byte(base)))

	dstDir := t.TempDir()
	parent := filepath.Dir(dstDir)
	before, err := os.ReadDir(parent)
	require.NoError(t, err)

	withCwd(t, dstDir, func() {
		err := ReceiveFrame(&wireBuf, RecvOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, wire.ErrPathRejected))
	})

	after, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after), "no directory should have been created in the parent of the CWD")
}

// S9: any magic outside {FILE,DIR,TARG,TDIR} fails with UnknownFrame
// and performs zero filesystem side effects.
func TestUnknownFrameMagic(t *testing.T) {
	var wireBuf bytes.Buffer
	require.NoError(t, wire.SendExact(&wireBuf, []byte{0, 0, 0, 0}))

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		err := ReceiveFrame(&wireBuf, RecvOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, wire.ErrUnknownFrame))
	})

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// S10: truncating the stream mid-body yields PeerClosed.
func TestPeerClosedMidBody(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("0123456789"), 0o644))

	var full bytes.Buffer
	require.NoError(t, SendFile(&full, src, "", SendOptions{}))

	truncated := bytes.NewReader(full.Bytes()[:4+16+9+5]) // magic+header+name+5 content bytes

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		err := ReceiveFrame(truncated, RecvOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, wire.ErrPeerClosed))
	})
}

// Property 4: basename-only on non-tree frames, even if the source
// path has directory components.
func TestBasenameOnlyFilename(t *testing.T) {
	srcDir := t.TempDir()
	nested := filepath.Join(srcDir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	src := filepath.Join(nested, "deep.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	var wireBuf bytes.Buffer
	require.NoError(t, SendFile(&wireBuf, src, "", SendOptions{}))

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	_, err := os.Stat(filepath.Join(dstDir, "deep.txt"))
	require.NoError(t, err)
}

// Property 1: round-trip equivalence via SHA-256, including a larger
// file that spans several chunks.
func TestRoundTripLargeFileHash(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "big.bin")
	data := make([]byte, 300*1024)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(src, data, 0o644))
	want := sha256.Sum256(data)

	var wireBuf bytes.Buffer
	require.NoError(t, SendFile(&wireBuf, src, "", SendOptions{}))

	dstDir := t.TempDir()
	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	got, err := os.ReadFile(filepath.Join(dstDir, "big.bin"))
	require.NoError(t, err)
	gotHash := sha256.Sum256(got)
	assert.Equal(t, want, gotHash)
}

// Overwrite policy: the receiver silently overwrites existing files.
func TestReceiverOverwritesExistingFile(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("new-data"), 0o644))

	var wireBuf bytes.Buffer
	require.NoError(t, SendFile(&wireBuf, src, "", SendOptions{}))

	dstDir := t.TempDir()
	existing := filepath.Join(dstDir, "hello.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old-data-longer-than-new"), 0o644))

	withCwd(t, dstDir, func() {
		require.NoError(t, ReceiveFrame(&wireBuf, RecvOptions{}))
	})

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "new-data", string(got))
}
