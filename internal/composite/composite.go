// Package composite is a layered in-memory display surface.
//
// Layer 0 is the background. When merging, each output pixel takes the
// value of the highest layer holding a non-black pixel there. Composite is
// not safe for concurrent use; producers serialize through a shared lock.
package composite

import (
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
)

// Surface is the contract the ingest loop draws through.
type Surface interface {
	Width() int
	Height() int
	Layers() int
	SetLayer(layer int)
	SetPixel(x, y int, c canvas.Color)
	Send() error
}

// Transport receives the merged surface on every flush.
type Transport interface {
	Write(out *canvas.Canvas) error
}

type Composite struct {
	layers    []*canvas.Canvas
	touched   []time.Time
	active    int
	out       *canvas.Canvas
	transport Transport
	now       func() time.Time
}

var _ Surface = (*Composite)(nil)

// New creates a width x height surface with n layers. n < 1 means one.
func New(width, height, n int, transport Transport) *Composite {
	if n < 1 {
		n = 1
	}
	if transport == nil {
		transport = Discard{}
	}
	c := &Composite{
		layers:    make([]*canvas.Canvas, n),
		touched:   make([]time.Time, n),
		out:       canvas.New(width, height),
		transport: transport,
		now:       time.Now,
	}
	for i := range c.layers {
		c.layers[i] = canvas.New(width, height)
	}
	return c
}

func (c *Composite) Width() int  { return c.out.Width() }
func (c *Composite) Height() int { return c.out.Height() }
func (c *Composite) Layers() int { return len(c.layers) }

// SetLayer selects the layer SetPixel writes to. Out-of-range ids clamp.
func (c *Composite) SetLayer(layer int) {
	switch {
	case layer < 0:
		layer = 0
	case layer >= len(c.layers):
		layer = len(c.layers) - 1
	}
	c.active = layer
}

func (c *Composite) Layer() int {
	return c.active
}

// SetPixel writes to the active layer; writes off the surface are dropped.
func (c *Composite) SetPixel(x, y int, col canvas.Color) {
	c.layers[c.active].SetPixel(x, y, col)
	c.touched[c.active] = c.now()
}

// LayerPixel reads one layer without merging.
func (c *Composite) LayerPixel(layer, x, y int) canvas.Color {
	if layer < 0 || layer >= len(c.layers) {
		return canvas.Color{}
	}
	return c.layers[layer].Pixel(x, y)
}

// Send merges all layers and hands the result to the transport.
func (c *Composite) Send() error {
	c.merge()
	return c.transport.Write(c.out)
}

// Snapshot returns a copy of the last merged output.
func (c *Composite) Snapshot() *canvas.Canvas {
	return c.out.Clone()
}

// ExpireLayers clears every layer above the background that has not been
// written for idle. It reports how many layers were cleared.
func (c *Composite) ExpireLayers(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	now := c.now()
	cleared := 0
	for i := 1; i < len(c.layers); i++ {
		if c.touched[i].IsZero() || now.Sub(c.touched[i]) < idle {
			continue
		}
		c.layers[i].Clear()
		c.touched[i] = time.Time{}
		cleared++
	}
	return cleared
}

func (c *Composite) merge() {
	dst := c.out.Pix()
	copy(dst, c.layers[0].Pix())
	for i := 1; i < len(c.layers); i++ {
		if c.touched[i].IsZero() {
			continue
		}
		src := c.layers[i].Pix()
		for p := 0; p+2 < len(src); p += canvas.BytesPerPixel {
			if src[p] == 0 && src[p+1] == 0 && src[p+2] == 0 {
				continue
			}
			dst[p], dst[p+1], dst[p+2] = src[p], src[p+1], src[p+2]
		}
	}
}
