package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/client"
	"github.com/danmuck/pixelstream/internal/endpoint"
	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/danmuck/pixelstream/internal/protocol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	display string
	udpSize int
	width   int
	height  int
	x, y, z int
	fps     float64
	frames  int
}

func (o *sendOptions) register(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVarP(&o.display, "display", "d", "", "display host[:port]")
	fs.IntVar(&o.udpSize, "udp-size", 0, "maximum datagram size in bytes")
	fs.IntVarP(&o.width, "width", "W", 45, "canvas width")
	fs.IntVarP(&o.height, "height", "H", 35, "canvas height")
	fs.IntVarP(&o.x, "x", "x", 0, "x offset on the display")
	fs.IntVarP(&o.y, "y", "y", 0, "y offset on the display")
	fs.IntVarP(&o.z, "layer", "z", 0, "display layer")
	fs.Float64Var(&o.fps, "fps", 0, "resend rate; 0 sends once")
	fs.IntVar(&o.frames, "frames", 0, "stop after this many sends when --fps is set; 0 runs until interrupted")
}

// paintFunc draws frame n onto the canvas before it is sent.
type paintFunc func(c *canvas.Canvas, n int)

func (o *sendOptions) run(width, height int, paint paintFunc) error {
	observability.InitLogger("ftsend")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := endpoint.Dial(ctx, o.display)
	if err != nil {
		return err
	}
	defer conn.Close()

	c := client.New(conn, width, height, o.udpSize)
	c.SetOffset(o.x, o.y, o.z)

	return o.stream(ctx, c.Canvas, paint, func(ctx context.Context) error {
		stats, err := c.Send(ctx)
		if err == nil && o.fps <= 0 {
			log.Info().Int("frames", stats.Frames).Int("bytes", stats.Bytes).Msg("sent")
		}
		return err
	})
}

// stream paints and sends once, or repeatedly at o.fps until o.frames
// sends are done or ctx ends. An interrupt is a clean stop.
func (o *sendOptions) stream(ctx context.Context, cv *canvas.Canvas, paint paintFunc, send func(context.Context) error) error {
	err := o.sendFrames(ctx, cv, paint, send)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupted")
		return nil
	}
	return err
}

func (o *sendOptions) sendFrames(ctx context.Context, cv *canvas.Canvas, paint paintFunc, send func(context.Context) error) error {
	if o.fps <= 0 {
		paint(cv, 0)
		return send(ctx)
	}

	ticker := time.NewTicker(frameInterval(o.fps))
	defer ticker.Stop()
	for n := 0; o.frames == 0 || n < o.frames; n++ {
		paint(cv, n)
		if err := send(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// frameInterval converts a rate to a ticker period of at least 1ns.
func frameInterval(fps float64) time.Duration {
	d := time.Duration(float64(time.Second) / fps)
	if d < 1 {
		d = 1
	}
	return d
}

func fillCmd(opts *sendOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <rrggbb>",
		Short: "Fill the canvas with one color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := parseColor(args[0])
			if err != nil {
				return err
			}
			return opts.run(opts.width, opts.height, func(c *canvas.Canvas, _ int) {
				c.Fill(col)
			})
		},
	}
}

func gradientCmd(opts *sendOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gradient",
		Short: "Send a scrolling color gradient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(opts.width, opts.height, paintGradient)
		},
	}
}

func ppmCmd(opts *sendOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ppm <file>",
		Short: "Send a binary PPM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadPPM(args[0])
			if err != nil {
				return err
			}
			return opts.run(img.Width(), img.Height(), func(c *canvas.Canvas, _ int) {
				copy(c.Pix(), img.Pix())
			})
		},
	}
}

func paintGradient(c *canvas.Canvas, n int) {
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			c.SetPixel(x, y, canvas.Color{
				R: uint8((x + n) * 255 / max(c.Width(), 1)),
				G: uint8((y + n) * 255 / max(c.Height(), 1)),
				B: uint8(n),
			})
		}
	}
}

func loadPPM(path string) (*canvas.Canvas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ppm: %w", err)
	}
	meta, pix, err := protocol.Decode(data, protocol.Hint{})
	if err != nil {
		return nil, fmt.Errorf("decode ppm %s: %w", path, err)
	}
	img := canvas.New(meta.Width, meta.Height)
	copy(img.Pix(), pix)
	return img, nil
}

func parseColor(raw string) (canvas.Color, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(raw) != 6 {
		return canvas.Color{}, fmt.Errorf("color must be rrggbb, got %q", raw)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return canvas.Color{}, fmt.Errorf("parse color %q: %w", raw, err)
	}
	return canvas.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
