package ingest

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/composite"
	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/danmuck/pixelstream/internal/protocol"
	"github.com/rs/zerolog/log"
)

var ErrNilLock = errors.New("ingest: shared lock is required")

// PacketReader is the receive side of a datagram socket.
type PacketReader interface {
	ReadFrom(p []byte) (int, net.Addr, error)
	Close() error
	LocalAddr() net.Addr
}

// State is the loop's position in its receive/dispatch cycle.
type State int32

const (
	StateIdle State = iota
	StateDispatching
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Stats are the loop's running counters.
type Stats struct {
	Datagrams uint64 `json:"datagrams"`
	Applied   uint64 `json:"applied"`
	Dropped   uint64 `json:"dropped"`
	FlushErrs uint64 `json:"flush_errors"`
}

// Loop reads frames from one socket and draws them onto a shared surface.
// Every draw-then-flush runs under lock, which the caller shares with any
// other producer of the same surface.
type Loop struct {
	name    string
	conn    PacketReader
	surface composite.Surface
	lock    sync.Locker

	state     atomic.Int32
	datagrams atomic.Uint64
	applied   atomic.Uint64
	dropped   atomic.Uint64
	flushErrs atomic.Uint64
}

// NewLoop wires a socket to a surface. lock must be shared by every
// producer that mutates surface.
func NewLoop(name string, conn PacketReader, surface composite.Surface, lock sync.Locker) (*Loop, error) {
	if lock == nil {
		return nil, ErrNilLock
	}
	if name == "" {
		name = "udp:" + conn.LocalAddr().String()
	}
	return &Loop{
		name:    name,
		conn:    conn,
		surface: surface,
		lock:    lock,
	}, nil
}

func (l *Loop) Name() string { return l.name }

func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) Stats() Stats {
	return Stats{
		Datagrams: l.datagrams.Load(),
		Applied:   l.applied.Load(),
		Dropped:   l.dropped.Load(),
		FlushErrs: l.flushErrs.Load(),
	}
}

// Run blocks until ctx is canceled or the socket fails. Cancellation
// closes the socket; the interrupted read ends the loop cleanly. A
// dispatch in progress always finishes first.
func (l *Loop) Run(ctx context.Context) error {
	defer l.state.Store(int32(StateTerminated))

	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()

	log.Info().Str("component", "ingest.Loop.Run").Str("listener", l.name).
		Int("width", l.surface.Width()).Int("height", l.surface.Height()).Msg("ready")

	buf := make([]byte, MaxDatagram)
	for {
		if ctx.Err() != nil {
			return nil
		}
		l.state.Store(int32(StateIdle))
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info().Str("component", "ingest.Loop.Run").Str("listener", l.name).Msg("shutdown")
				return nil
			}
			return err
		}
		l.handle(buf[:n], from)
	}
}

func (l *Loop) handle(datagram []byte, from net.Addr) {
	l.datagrams.Add(1)
	observability.RecordDatagram(l.name)

	hint := protocol.Hint{
		Width:  l.surface.Width(),
		Height: l.surface.Height(),
		Layers: l.surface.Layers(),
	}
	meta, pix, err := protocol.Decode(datagram, hint)
	if err != nil {
		l.dropped.Add(1)
		observability.RecordFrameDropped(l.name, dropReason(err))
		log.Debug().Str("component", "ingest.Loop.handle").Str("listener", l.name).
			Stringer("from", from).Int("bytes", len(datagram)).Err(err).Msg("datagram dropped")
		return
	}

	l.state.Store(int32(StateDispatching))
	start := time.Now()
	l.lock.Lock()
	l.surface.SetLayer(meta.Layer)
	Apply(l.surface, meta, pix)
	flushErr := l.surface.Send()
	l.surface.SetLayer(0)
	l.lock.Unlock()

	if flushErr != nil {
		l.flushErrs.Add(1)
		observability.RecordFlushError(l.name)
		log.Warn().Str("component", "ingest.Loop.handle").Str("listener", l.name).Err(flushErr).Msg("flush failed")
		return
	}
	l.applied.Add(1)
	observability.RecordFrameApplied(l.name, meta.Layer, time.Since(start))
}

// Apply draws a decoded frame at its offset onto the active layer of
// surface. The surface clips pixels that fall outside it. The caller
// holds the surface lock. A pix shorter than the frame draws nothing.
func Apply(surface composite.Surface, meta protocol.ImageMetaInfo, pix []byte) {
	if meta.Width <= 0 || meta.Height <= 0 || len(pix) < meta.Width*meta.Height*canvas.BytesPerPixel {
		return
	}
	i := 0
	for y := 0; y < meta.Height; y++ {
		for x := 0; x < meta.Width; x++ {
			surface.SetPixel(x+meta.OffX, y+meta.OffY, canvas.Color{R: pix[i], G: pix[i+1], B: pix[i+2]})
			i += canvas.BytesPerPixel
		}
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrInvalidMagic):
		return "invalid_magic"
	case errors.Is(err, protocol.ErrInvalidDimensions):
		return "invalid_dimensions"
	case errors.Is(err, protocol.ErrUnsupportedMaxval):
		return "unsupported_maxval"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrOffSurface):
		return "off_surface"
	default:
		return "malformed"
	}
}

// Close releases the socket without waiting for Run.
func (l *Loop) Close() error {
	return l.conn.Close()
}

func (l *Loop) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}
