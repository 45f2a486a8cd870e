package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/pixelstream/internal/observability"
	"github.com/danmuck/pixelstream/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	cmd, _ := rootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ftserver: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() (*cobra.Command, *serverFlags) {
	flags := &serverFlags{}
	cmd := &cobra.Command{
		Use:   "ftserver",
		Short: "Receive pixel frames over UDP and composite them onto one display",
		Long: `ftserver listens on one or more IPv6 UDP ports for PPM frames carrying
an #FT placement footer. Frames from every port are drawn onto one layered
surface under a shared lock and flushed to the configured transport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, *flags)
			if err != nil {
				return err
			}
			return run(cfg, flags.id)
		},
	}
	flags.register(cmd)
	return cmd, flags
}

func run(cfg serverConfig, id string) error {
	observability.InitLogger("ftserver")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := server.New(id, cfg.ServerConfig)
	if err != nil {
		return err
	}
	if err := s.Open(ctx); err != nil {
		return err
	}
	log.Info().
		Str("id", id).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("layers", cfg.Layers).
		Ints("ports", cfg.Ports).
		Str("transport", cfg.Transport).
		Msg("display server started")
	return s.Serve(ctx)
}
