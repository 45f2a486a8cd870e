package transmit

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/danmuck/pixelstream/internal/protocol"
)

// Stats reports what one Send put on the wire.
type Stats struct {
	Frames int
	Bytes  int
}

// Sender splits a canvas into row chunks and writes one frame per chunk.
// A Sender keeps no scratch state between calls; concurrent Sends on
// distinct canvases are safe.
type Sender struct {
	Limits Limits
	Retry  RetryPolicy
}

func NewSender(width int) *Sender {
	return &Sender{
		Limits: NewLimits(width),
		Retry:  DefaultRetryPolicy(),
	}
}

// Send writes every row of c to w. Each frame goes out as one write.
// The first non-transient error aborts the remaining chunks; Stats then
// counts only the frames that were written.
func (s *Sender) Send(ctx context.Context, w io.Writer, c *canvas.Canvas) (Stats, error) {
	var stats Stats
	if c.Width() != s.Limits.Width() {
		return stats, fmt.Errorf("%w: canvas=%d limits=%d", ErrWidthMismatch, c.Width(), s.Limits.Width())
	}
	if floor := s.Limits.MinPacketSize(); floor > MaxPacketSize {
		return stats, fmt.Errorf("%w: one row needs %d bytes, datagrams carry at most %d",
			ErrPacketTooSmall, floor, MaxPacketSize)
	}

	rowsPerChunk := s.Limits.RowsPerChunk()
	off := c.Offset()
	var scratch [protocol.HeaderReserve]byte
	var rng *rand.Rand

	for tile := 0; tile < c.Height(); {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rows := min(c.Height()-tile, rowsPerChunk)
		header := protocol.AppendHeader(scratch[:0], protocol.Header{
			Width:  c.Width(),
			Height: rows,
			OffX:   off.X,
			OffY:   off.Y + tile,
			OffZ:   off.Z,
		})
		payload := c.Rows(tile, rows)

		n, err := s.write(ctx, w, header, payload, &rng)
		if err != nil {
			observability.RecordSendError()
			return stats, fmt.Errorf("transmit: send chunk at row %d: %w", tile, err)
		}
		stats.Frames++
		stats.Bytes += n
		observability.RecordFrameSent(n)
		tile += rows
	}
	return stats, nil
}

func (s *Sender) write(ctx context.Context, w io.Writer, header, payload []byte, rng **rand.Rand) (int, error) {
	want := len(header) + len(payload)
	for attempt := 1; ; attempt++ {
		n, err := writeDatagram(w, header, payload)
		if err == nil {
			if n != want {
				return n, io.ErrShortWrite
			}
			return n, nil
		}
		if !isTransient(err) || attempt >= s.Retry.MaxAttempts {
			return n, err
		}
		if *rng == nil {
			*rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		timer := time.NewTimer(NextBackoffDelay(s.Retry.Backoff, attempt, *rng))
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
}

// writeJoined copies both segments into one buffer so plain writers still
// see a single Write per frame.
func writeJoined(w io.Writer, header, payload []byte) (int, error) {
	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return w.Write(buf)
}
