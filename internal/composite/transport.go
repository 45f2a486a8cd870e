package composite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/protocol"
)

// Discard drops every flush.
type Discard struct{}

func (Discard) Write(*canvas.Canvas) error { return nil }

// PPMFile rewrites a PPM snapshot of the surface on every flush. The file
// is replaced by rename so readers never see a partial image.
type PPMFile struct {
	Path string
}

func (p PPMFile) Write(out *canvas.Canvas) error {
	data, err := protocol.Encode(protocol.Header{Width: out.Width(), Height: out.Height()}, out.Pix())
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.Path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.ppm")
	if err != nil {
		return fmt.Errorf("composite: ppm snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("composite: ppm snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("composite: ppm snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("composite: ppm snapshot: %w", err)
	}
	return nil
}

// Recorder keeps a copy of every flushed surface.
type Recorder struct {
	mu     sync.Mutex
	frames []*canvas.Canvas
}

func (r *Recorder) Write(out *canvas.Canvas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, out.Clone())
	return nil
}

func (r *Recorder) Frames() []*canvas.Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*canvas.Canvas, len(r.frames))
	copy(out, r.frames)
	return out
}
