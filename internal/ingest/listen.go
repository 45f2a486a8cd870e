package ingest

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"
)

const (
	// DefaultRecvBuffer is requested as SO_RCVBUF; it is the only buffer
	// absorbing bursts between reads.
	DefaultRecvBuffer = 8 * 1024 * 1024
	// MaxDatagram is the largest datagram the loop reads in one call.
	MaxDatagram = 65535
)

// ListenConfig selects the socket a loop reads from.
type ListenConfig struct {
	Port       int
	RecvBuffer int
	// Network defaults to "udp6" bound to [::] with IPV6_V6ONLY.
	Network string
	Host    string
}

// Listen binds the ingest socket. Failures are startup errors for the caller.
func Listen(ctx context.Context, cfg ListenConfig) (*net.UDPConn, error) {
	if cfg.Network == "" {
		cfg.Network = "udp6"
	}
	if cfg.RecvBuffer <= 0 {
		cfg.RecvBuffer = DefaultRecvBuffer
	}
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = tuneReceiver(int(fd), network, cfg.RecvBuffer)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	pc, err := lc.ListenPacket(ctx, cfg.Network, addr)
	if err != nil {
		return nil, fmt.Errorf("ingest: bind %s %s: %w", cfg.Network, addr, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("ingest: unexpected conn type %T", pc)
	}
	return conn, nil
}
