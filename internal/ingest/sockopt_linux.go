//go:build linux

package ingest

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func tuneReceiver(fd int, network string, recvBuffer int) error {
	if network == "udp6" {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			return fmt.Errorf("ingest: set IPV6_V6ONLY: %w", err)
		}
	}
	// The kernel caps this at net.core.rmem_max; a smaller buffer is fine.
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recvBuffer)
	return nil
}
