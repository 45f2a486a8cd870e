package transmit

import (
	"errors"
	"fmt"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/protocol"
)

const (
	// DefaultPacketSize fits comfortably in a jumbo-free Ethernet path
	// after IP fragmentation.
	DefaultPacketSize = 8192
	// OptimalPacketSize caps the chunk budget even when a larger size
	// was negotiated.
	OptimalPacketSize = 8192
	// MaxPacketSize is the largest UDP payload over IPv4.
	MaxPacketSize = 65507
)

var (
	ErrPacketTooLarge = errors.New("transmit: packet size above 65507 bytes")
	ErrPacketTooSmall = errors.New("transmit: packet size below one row plus header")
	ErrWidthMismatch  = errors.New("transmit: canvas width does not match limits")
)

// Limits holds the negotiated datagram size for canvases of one width.
type Limits struct {
	width      int
	packetSize int
}

// NewLimits returns the default limits for width. When a single row does
// not fit the default, the smallest size carrying one row is used, capped
// at MaxPacketSize. Widths whose row exceeds even that cannot be sent.
func NewLimits(width int) Limits {
	if width < 1 {
		width = 1
	}
	l := Limits{width: width, packetSize: DefaultPacketSize}
	if floor := l.MinPacketSize(); l.packetSize < floor {
		l.packetSize = floor
		if l.packetSize > MaxPacketSize {
			l.packetSize = MaxPacketSize
		}
	}
	return l
}

func (l Limits) Width() int      { return l.width }
func (l Limits) PacketSize() int { return l.packetSize }

func (l Limits) rowBytes() int {
	return l.width * canvas.BytesPerPixel
}

// MinPacketSize is the smallest size that carries one full row.
func (l Limits) MinPacketSize() int {
	return l.rowBytes() + protocol.HeaderReserve
}

// SetPacketSize validates and applies n. On error the previous size stays.
func (l *Limits) SetPacketSize(n int) error {
	if n > MaxPacketSize {
		return fmt.Errorf("%w: requested %d, keeping %d", ErrPacketTooLarge, n, l.packetSize)
	}
	if n < l.MinPacketSize() {
		return fmt.Errorf("%w: requested %d, minimum %d, keeping %d",
			ErrPacketTooSmall, n, l.MinPacketSize(), l.packetSize)
	}
	l.packetSize = n
	return nil
}

// RowsPerChunk is the number of rows carried by one frame.
func (l Limits) RowsPerChunk() int {
	budget := l.packetSize
	if budget > OptimalPacketSize {
		budget = OptimalPacketSize
	}
	// Rows wider than the optimal budget use the full negotiated size.
	if budget < l.MinPacketSize() {
		budget = l.packetSize
	}
	rows := (budget - protocol.HeaderReserve) / l.rowBytes()
	if rows < 1 {
		rows = 1
	}
	return rows
}
