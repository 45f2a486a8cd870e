//go:build linux

package endpoint

import "golang.org/x/sys/unix"

// tuneSender enlarges the send buffer and stops the kernel from
// fragmenting outgoing IPv6 datagrams. Both are best effort.
func tuneSender(fd int) error {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, SendBufferBytes)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_DONTFRAG, 1)
	return nil
}
