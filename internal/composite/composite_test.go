package composite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/protocol"
)

func TestHighestNonBlackLayerWins(t *testing.T) {
	rec := &Recorder{}
	c := New(3, 1, 4, rec)

	c.SetLayer(0)
	c.SetPixel(0, 0, canvas.Color{R: 1})
	c.SetPixel(1, 0, canvas.Color{R: 1})
	c.SetPixel(2, 0, canvas.Color{R: 1})
	c.SetLayer(2)
	c.SetPixel(1, 0, canvas.Color{G: 2})
	c.SetLayer(3)
	c.SetPixel(2, 0, canvas.Color{B: 3})
	c.SetLayer(1)
	c.SetPixel(2, 0, canvas.Color{G: 9})

	if err := c.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := rec.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected one flush, got %d", len(frames))
	}
	out := frames[0]
	want := []canvas.Color{{R: 1}, {G: 2}, {B: 3}}
	for x, w := range want {
		if got := out.Pixel(x, 0); got != w {
			t.Fatalf("pixel %d: got=%+v want=%+v", x, got, w)
		}
	}
}

func TestSetLayerClamps(t *testing.T) {
	c := New(1, 1, 3, nil)
	c.SetLayer(-4)
	if c.Layer() != 0 {
		t.Fatalf("expected 0, got %d", c.Layer())
	}
	c.SetLayer(9)
	if c.Layer() != 2 {
		t.Fatalf("expected 2, got %d", c.Layer())
	}
}

func TestSetPixelClipsOffSurface(t *testing.T) {
	c := New(2, 2, 1, nil)
	c.SetPixel(-1, 0, canvas.Color{R: 5})
	c.SetPixel(2, 1, canvas.Color{R: 5})
	if err := c.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, b := range c.Snapshot().Pix() {
		if b != 0 {
			t.Fatalf("off-surface write landed on the surface")
		}
	}
}

func TestExpireLayersKeepsBackground(t *testing.T) {
	now := time.Unix(100, 0)
	c := New(1, 1, 3, nil)
	c.now = func() time.Time { return now }

	c.SetLayer(0)
	c.SetPixel(0, 0, canvas.Color{R: 1})
	c.SetLayer(2)
	c.SetPixel(0, 0, canvas.Color{B: 1})

	now = now.Add(5 * time.Second)
	if n := c.ExpireLayers(10 * time.Second); n != 0 {
		t.Fatalf("expired too early: %d", n)
	}
	now = now.Add(10 * time.Second)
	if n := c.ExpireLayers(10 * time.Second); n != 1 {
		t.Fatalf("expected one layer cleared, got %d", n)
	}
	if !c.LayerPixel(2, 0, 0).IsBlack() {
		t.Fatalf("layer 2 not cleared")
	}
	if c.LayerPixel(0, 0, 0) != (canvas.Color{R: 1}) {
		t.Fatalf("background cleared")
	}
}

func TestPPMFileWritesDecodableSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.ppm")
	c := New(2, 1, 2, PPMFile{Path: path})
	c.SetLayer(1)
	c.SetPixel(1, 0, canvas.Color{R: 10, G: 20, B: 30})
	if err := c.Send(); err != nil {
		t.Fatalf("send: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	meta, pix, err := protocol.Decode(data, protocol.Hint{})
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if meta.Width != 2 || meta.Height != 1 {
		t.Fatalf("unexpected geometry: %+v", meta)
	}
	if pix[3] != 10 || pix[4] != 20 || pix[5] != 30 {
		t.Fatalf("unexpected pixels: %v", pix)
	}
}
