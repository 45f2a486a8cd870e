package ingest

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/composite"
	"github.com/danmuck/pixelstream/internal/protocol"
	"github.com/danmuck/pixelstream/internal/testutil/testlog"
	"github.com/danmuck/pixelstream/internal/transmit"
)

// chanReader feeds datagrams to a loop without a socket.
type chanReader struct {
	ch        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanReader() *chanReader {
	return &chanReader{ch: make(chan []byte, 64), closed: make(chan struct{})}
}

func (r *chanReader) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case d := <-r.ch:
		return copy(p, d), &net.UDPAddr{IP: net.IPv6loopback, Port: 9}, nil
	case <-r.closed:
		return 0, nil, net.ErrClosed
	}
}

func (r *chanReader) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}

func (r *chanReader) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv6loopback, Port: 1337}
}

type frameRecorder struct {
	frames [][]byte
}

func (r *frameRecorder) Write(p []byte) (int, error) {
	r.frames = append(r.frames, append([]byte(nil), p...))
	return len(p), nil
}

func encodeFrame(t *testing.T, h protocol.Header, col canvas.Color) []byte {
	t.Helper()
	pix := make([]byte, h.PayloadLen())
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = col.R, col.G, col.B
	}
	frame, err := protocol.Encode(h, pix)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return frame
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestNewLoopRequiresLock(t *testing.T) {
	if _, err := NewLoop("x", newChanReader(), composite.New(1, 1, 1, nil), nil); !errors.Is(err, ErrNilLock) {
		t.Fatalf("expected ErrNilLock, got %v", err)
	}
}

func TestLoopAppliesFramesAndDropsGarbage(t *testing.T) {
	testlog.Start(t)
	rec := &composite.Recorder{}
	surface := composite.New(8, 8, 16, rec)
	reader := newChanReader()
	var mu sync.Mutex
	loop, err := NewLoop("", reader, surface, &mu)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	if loop.Name() != "udp:[::1]:1337" {
		t.Fatalf("unexpected default name: %q", loop.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	reader.ch <- []byte("not a frame")
	reader.ch <- encodeFrame(t, protocol.Header{Width: 2, Height: 2, OffX: 1, OffY: 1, OffZ: 3}, canvas.Color{R: 200})
	reader.ch <- encodeFrame(t, protocol.Header{Width: 2, Height: 2}, canvas.Color{G: 100})[:20]
	reader.ch <- encodeFrame(t, protocol.Header{Width: 1, Height: 1, OffX: 50}, canvas.Color{B: 1})

	waitFor(t, func() bool { return loop.Stats().Datagrams == 4 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if loop.State() != StateTerminated {
		t.Fatalf("unexpected state: %v", loop.State())
	}

	stats := loop.Stats()
	if stats.Applied != 1 || stats.Dropped != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rec.Frames()) != 1 {
		t.Fatalf("expected one flush, got %d", len(rec.Frames()))
	}
	if got := surface.LayerPixel(3, 2, 2); got != (canvas.Color{R: 200}) {
		t.Fatalf("frame not drawn on layer 3: %+v", got)
	}
	if !surface.LayerPixel(0, 2, 2).IsBlack() {
		t.Fatalf("frame leaked onto layer 0")
	}
	if surface.Layer() != 0 {
		t.Fatalf("default layer not restored: %d", surface.Layer())
	}
}

func TestLoopReturnsReadErrors(t *testing.T) {
	reader := &failingReader{err: errors.New("socket gone")}
	var mu sync.Mutex
	loop, err := NewLoop("fail", reader, composite.New(1, 1, 1, nil), &mu)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	if err := loop.Run(context.Background()); !errors.Is(err, reader.err) {
		t.Fatalf("expected read error, got %v", err)
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) ReadFrom([]byte) (int, net.Addr, error) { return 0, nil, r.err }
func (r *failingReader) Close() error                           { return nil }
func (r *failingReader) LocalAddr() net.Addr                    { return &net.UDPAddr{} }

func TestReassemblyAnySubsetAnyOrder(t *testing.T) {
	src := canvas.New(4, 6)
	src.SetOffset(2, 1, 1)
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			src.SetPixel(x, y, canvas.Color{R: uint8(10 + x), G: uint8(20 + y), B: 7})
		}
	}
	sender := transmit.NewSender(4)
	if err := sender.Limits.SetPacketSize(64 + 2*12); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec := &frameRecorder{}
	if _, err := sender.Send(context.Background(), rec, src); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(rec.frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(rec.frames))
	}

	subsets := [][]int{{0}, {1}, {2}, {2, 0}, {1, 2}, {2, 1, 0}, {0, 2, 1}, {1, 0}}
	for _, subset := range subsets {
		surface := composite.New(10, 10, 4, nil)
		delivered := map[int]bool{}
		for _, idx := range subset {
			meta, pix, err := protocol.Decode(rec.frames[idx], protocol.Hint{Width: 10, Height: 10, Layers: 4})
			if err != nil {
				t.Fatalf("decode frame %d: %v", idx, err)
			}
			surface.SetLayer(meta.Layer)
			Apply(surface, meta, pix)
			surface.SetLayer(0)
			delivered[idx] = true
		}
		for y := 0; y < 6; y++ {
			chunk := y / 2
			for x := 0; x < 4; x++ {
				got := surface.LayerPixel(1, x+2, y+1)
				if delivered[chunk] {
					if got != src.Pixel(x, y) {
						t.Fatalf("subset %v: pixel (%d,%d) got=%+v want=%+v", subset, x, y, got, src.Pixel(x, y))
					}
				} else if !got.IsBlack() {
					t.Fatalf("subset %v: undelivered row %d painted", subset, y)
				}
			}
		}
	}
}

func TestApplyIgnoresShortPayload(t *testing.T) {
	surface := composite.New(2, 2, 1, nil)
	Apply(surface, protocol.ImageMetaInfo{Width: 2, Height: 2}, []byte{1, 2, 3})
	if !surface.LayerPixel(0, 0, 0).IsBlack() {
		t.Fatalf("short payload drawn")
	}
}

func TestLoopOverUDP(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := Listen(ctx, ListenConfig{Host: "::1", Port: 0, RecvBuffer: 1 << 20})
	if err != nil {
		t.Skipf("ipv6 loopback unavailable: %v", err)
	}
	surface := composite.New(6, 4, 16, nil)
	var mu sync.Mutex
	loop, err := NewLoop("udp:test", conn, surface, &mu)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	out, err := net.DialUDP("udp6", nil, conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer out.Close()

	src := canvas.New(6, 4)
	src.Fill(canvas.Color{R: 3, G: 4, B: 5})
	src.SetOffset(0, 0, 2)
	sender := transmit.NewSender(6)
	if err := sender.Limits.SetPacketSize(64 + 18); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := sender.Send(ctx, out, src); err != nil {
		t.Fatalf("send: %v", err)
	}

	waitFor(t, func() bool { return loop.Stats().Applied == 4 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if got := surface.LayerPixel(2, x, y); got != (canvas.Color{R: 3, G: 4, B: 5}) {
				t.Fatalf("pixel (%d,%d) = %+v", x, y, got)
			}
		}
	}
}
