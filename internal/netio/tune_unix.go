//go:build linux || darwin || freebsd

package netio

import (
	"net"

	"golang.org/x/sys/unix"
)

// tuneTCPBuffers raises the socket's receive buffer toward the
// adaptive chunker's maximum chunk size so a single large chunk can be
// read in one syscall on fast LAN links. Failure is non-fatal: the
// courier's retry loop handles partial reads regardless.
func tuneTCPBuffers(tc *net.TCPConn) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	const wantBuf = 2 * 1024 * 1024 // matches chunker.MaxChunkSize
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, wantBuf)
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, wantBuf)
	})
}
