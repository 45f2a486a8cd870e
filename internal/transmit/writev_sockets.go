//go:build linux || darwin

package transmit

import (
	"errors"
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// writeDatagram sends header and payload as one datagram. Sockets get a
// single writev(2); EAGAIN parks on the runtime poller until writable.
func writeDatagram(w io.Writer, header, payload []byte) (int, error) {
	sc, ok := w.(syscall.Conn)
	if !ok {
		return writeJoined(w, header, payload)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return writeJoined(w, header, payload)
	}

	iov := [][]byte{header, payload}
	var n int
	var werr error
	err = rc.Write(func(fd uintptr) bool {
		for {
			n, werr = unix.Writev(int(fd), iov)
			if werr == unix.EINTR {
				continue
			}
			return werr != unix.EAGAIN
		}
	})
	if err != nil {
		return 0, err
	}
	return n, werr
}

func isTransient(err error) bool {
	return errors.Is(err, unix.ENOBUFS) || errors.Is(err, unix.ENOMEM)
}
