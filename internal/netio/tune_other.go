//go:build !linux && !darwin && !freebsd

package netio

import "net"

// tuneTCPBuffers is a no-op on platforms without a wired sockopt
// helper (e.g. Windows); TCP_NODELAY alone is still applied by the
// caller.
func tuneTCPBuffers(tc *net.TCPConn) {}
