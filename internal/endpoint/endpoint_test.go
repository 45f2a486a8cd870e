package endpoint

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestResolveDefaults(t *testing.T) {
	t.Setenv(EnvDisplay, "")
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != (Target{Host: DefaultHost, Port: DefaultPort}) {
		t.Fatalf("unexpected target: %+v", got)
	}
}

func TestResolveEnvOverride(t *testing.T) {
	t.Setenv(EnvDisplay, "wall.local:4000")
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Host != "wall.local" || got.Port != "4000" {
		t.Fatalf("unexpected target: %+v", got)
	}

	explicit, err := Resolve("bar")
	if err != nil {
		t.Fatalf("resolve explicit: %v", err)
	}
	if explicit.Host != "bar" || explicit.Port != DefaultPort {
		t.Fatalf("explicit host did not win over env: %+v", explicit)
	}
}

func TestResolveIPv6Literal(t *testing.T) {
	got, err := Resolve("[::1]:1400")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Host != "::1" || got.Port != "1400" {
		t.Fatalf("unexpected target: %+v", got)
	}
	if got.Address() != "[::1]:1400" {
		t.Fatalf("unexpected address: %q", got.Address())
	}

	bare, err := Resolve("[fe80::1]")
	if err != nil || bare.Port != DefaultPort {
		t.Fatalf("unexpected bare literal: %+v err=%v", bare, err)
	}

	if _, err := Resolve("[::1"); err == nil {
		t.Fatalf("expected error for unterminated literal")
	}
	if _, err := Resolve(":1337"); err == nil {
		t.Fatalf("expected error for empty host")
	}
}

func TestDialLoopbackIPv6(t *testing.T) {
	server, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6loopback})
	if err != nil {
		t.Skipf("ipv6 loopback unavailable: %v", err)
	}
	defer server.Close()

	port := server.LocalAddr().(*net.UDPAddr).Port
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := Dial(ctx, "[::1]:"+strconv.Itoa(port))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("P6")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 16)
	_ = server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := server.ReadFromUDP(buf)
	if err != nil || string(buf[:n]) != "P6" {
		t.Fatalf("unexpected read: %q err=%v", buf[:n], err)
	}
}
