package client

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/pixelstream/internal/canvas"
	"github.com/danmuck/pixelstream/internal/transmit"
	"github.com/rs/zerolog/log"
)

// EnvUDPSize overrides the datagram size chosen by the caller.
const EnvUDPSize = "FT_UDP_SIZE"

// Client is a canvas bound to a display connection.
type Client struct {
	*canvas.Canvas
	conn   io.Writer
	sender *transmit.Sender
}

// New creates a black width x height canvas sending on conn. A positive
// maxUDPSize is applied first, then FT_UDP_SIZE; rejected values are
// logged and the previous size stays.
func New(conn io.Writer, width, height, maxUDPSize int) *Client {
	c := &Client{
		Canvas: canvas.New(width, height),
		conn:   conn,
	}
	c.sender = transmit.NewSender(c.Width())

	if maxUDPSize > 0 {
		_ = c.SetMaxUDPPacketSize(maxUDPSize)
	}
	if raw := strings.TrimSpace(os.Getenv(EnvUDPSize)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn().Str("component", "client.New").Str("env", EnvUDPSize).Str("value", raw).Msg("ignoring non-numeric packet size")
		} else {
			_ = c.SetMaxUDPPacketSize(n)
		}
	}
	return c
}

// SetMaxUDPPacketSize negotiates the datagram size for this canvas.
func (c *Client) SetMaxUDPPacketSize(n int) error {
	if err := c.sender.Limits.SetPacketSize(n); err != nil {
		log.Warn().Str("component", "client.SetMaxUDPPacketSize").Err(err).Msg("packet size rejected")
		return err
	}
	return nil
}

func (c *Client) MaxUDPPacketSize() int {
	return c.sender.Limits.PacketSize()
}

// Send transmits the whole canvas as one or more frames.
func (c *Client) Send(ctx context.Context) (transmit.Stats, error) {
	return c.sender.Send(ctx, c.conn, c.Canvas)
}

// SendTo transmits the canvas on another connection.
func (c *Client) SendTo(ctx context.Context, conn io.Writer) (transmit.Stats, error) {
	return c.sender.Send(ctx, conn, c.Canvas)
}

// Clone copies the canvas and limits; the connection is shared.
func (c *Client) Clone() *Client {
	sender := *c.sender
	return &Client{
		Canvas: c.Canvas.Clone(),
		conn:   c.conn,
		sender: &sender,
	}
}
