package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

const (
	EnvDisplay  = "FT_DISPLAY"
	DefaultHost = "ft.noise"
	DefaultPort = "1337"
	// Network is the address family used for displays.
	Network = "udp6"
	// SendBufferBytes is requested as SO_SNDBUF on dialed sockets.
	SendBufferBytes = 2 * 1024 * 1024
)

var ErrEmptyHost = errors.New("endpoint: empty host")

// Target is a resolved display address before dialing.
type Target struct {
	Host string
	Port string
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// Resolve picks the display target. An empty host falls back to
// FT_DISPLAY and then to DefaultHost. A port follows the first colon, or
// the closing bracket of an "[ipv6]:port" literal.
func Resolve(host string) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = strings.TrimSpace(os.Getenv(EnvDisplay))
	}
	if host == "" {
		host = DefaultHost
	}

	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		if end < 0 {
			return Target{}, fmt.Errorf("endpoint: unterminated ipv6 literal %q", host)
		}
		t := Target{Host: host[1:end], Port: DefaultPort}
		if rest := host[end+1:]; rest != "" {
			if !strings.HasPrefix(rest, ":") || len(rest) == 1 {
				return Target{}, fmt.Errorf("endpoint: invalid port in %q", host)
			}
			t.Port = rest[1:]
		}
		return t, nil
	}

	t := Target{Host: host, Port: DefaultPort}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		t.Host = host[:i]
		t.Port = host[i+1:]
	}
	if t.Host == "" {
		return Target{}, ErrEmptyHost
	}
	if t.Port == "" {
		t.Port = DefaultPort
	}
	return t, nil
}

// Dial resolves host and connects a UDP socket to the display. Resolution
// and connect failures are returned, never fatal.
func Dial(ctx context.Context, host string) (*net.UDPConn, error) {
	target, err := Resolve(host)
	if err != nil {
		return nil, err
	}
	d := net.Dialer{Control: controlSender}
	conn, err := d.DialContext(ctx, Network, target.Address())
	if err != nil {
		return nil, fmt.Errorf("endpoint: resolve/connect %s: %w", target.Address(), err)
	}
	udp, ok := conn.(*net.UDPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("endpoint: unexpected conn type %T", conn)
	}
	return udp, nil
}

func controlSender(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = tuneSender(int(fd))
	})
	if err != nil {
		return err
	}
	return serr
}
