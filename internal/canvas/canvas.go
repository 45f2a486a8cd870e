package canvas

// Color is one RGB cell.
type Color struct {
	R, G, B uint8
}

func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// BytesPerPixel is the packed size of one Color on the wire and in memory.
const BytesPerPixel = 3

// Offset is the placement of a canvas on the remote display.
type Offset struct {
	X, Y, Z int
}

// Canvas is a fixed-size RGB grid stored as packed bytes, row-major.
// Writes outside the grid are discarded; reads wrap around.
type Canvas struct {
	width  int
	height int
	pix    []byte
	off    Offset
}

// New allocates a black canvas. Non-positive sizes are clamped to 1 so
// every accessor stays total.
func New(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Canvas{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*BytesPerPixel),
	}
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// RowBytes is the packed size of one row.
func (c *Canvas) RowBytes() int { return c.width * BytesPerPixel }

// Pix exposes the packed buffer. Its length is always Width*Height*3.
func (c *Canvas) Pix() []byte { return c.pix }

// Rows returns the packed bytes of n rows starting at row start, clamped
// to the canvas.
func (c *Canvas) Rows(start, n int) []byte {
	if start < 0 {
		start = 0
	}
	if start > c.height {
		start = c.height
	}
	if n < 0 {
		n = 0
	}
	if start+n > c.height {
		n = c.height - start
	}
	rb := c.RowBytes()
	return c.pix[start*rb : (start+n)*rb]
}

func (c *Canvas) Clear() {
	clear(c.pix)
}

// Fill paints every cell; black takes the Clear path.
func (c *Canvas) Fill(col Color) {
	if col.IsBlack() {
		c.Clear()
		return
	}
	for i := 0; i < len(c.pix); i += BytesPerPixel {
		c.pix[i] = col.R
		c.pix[i+1] = col.G
		c.pix[i+2] = col.B
	}
}

// SetPixel is a no-op outside [0,W)x[0,H).
func (c *Canvas) SetPixel(x, y int, col Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	i := (x + y*c.width) * BytesPerPixel
	c.pix[i] = col.R
	c.pix[i+1] = col.G
	c.pix[i+2] = col.B
}

// Pixel returns the cell at (x mod W, y mod H). Negative coordinates wrap
// to the far edge.
func (c *Canvas) Pixel(x, y int) Color {
	x = wrap(x, c.width)
	y = wrap(y, c.height)
	i := (x + y*c.width) * BytesPerPixel
	return Color{R: c.pix[i], G: c.pix[i+1], B: c.pix[i+2]}
}

func (c *Canvas) SetOffset(x, y, z int) {
	c.off = Offset{X: x, Y: y, Z: z}
}

func (c *Canvas) Offset() Offset {
	return c.off
}

// Clone returns a deep copy including offsets.
func (c *Canvas) Clone() *Canvas {
	out := &Canvas{
		width:  c.width,
		height: c.height,
		pix:    make([]byte, len(c.pix)),
		off:    c.off,
	}
	copy(out.pix, c.pix)
	return out
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
