package main

import (
	"time"

	"github.com/danmuck/pixelstream/internal/config"
	"github.com/spf13/cobra"
)

type serverFlags struct {
	id           string
	configPath   string
	width        int
	height       int
	layers       int
	ports        []int
	adminAddr    string
	ppmPath      string
	layerTimeout time.Duration
}

type serverConfig struct {
	config.ServerConfig
}

func (f *serverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.id, "id", "display.local", "server id reported by the admin API")
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	fs.IntVarP(&f.width, "width", "W", 0, "display width in pixels")
	fs.IntVarP(&f.height, "height", "H", 0, "display height in pixels")
	fs.IntVar(&f.layers, "layers", 0, "number of compositing layers")
	fs.IntSliceVarP(&f.ports, "port", "p", nil, "UDP port to listen on (repeatable)")
	fs.StringVar(&f.adminAddr, "admin", "", "admin HTTP listen address")
	fs.StringVar(&f.ppmPath, "ppm", "", "write a PPM snapshot to this path on every flush")
	fs.DurationVar(&f.layerTimeout, "layer-timeout", 0, "clear idle overlay layers after this long")
}

// resolveConfig starts from the defaults or the config file and applies
// the flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, f serverFlags) (serverConfig, error) {
	cfg := config.DefaultServerConfig()
	if f.configPath != "" {
		loaded, err := config.LoadServerConfig(f.configPath)
		if err != nil {
			return serverConfig{}, err
		}
		cfg = loaded
	}

	fs := cmd.Flags()
	if fs.Changed("width") {
		cfg.Width = f.width
	}
	if fs.Changed("height") {
		cfg.Height = f.height
	}
	if fs.Changed("layers") {
		cfg.Layers = f.layers
	}
	if fs.Changed("port") {
		cfg.Ports = f.ports
	}
	if fs.Changed("admin") {
		cfg.AdminAddr = f.adminAddr
	}
	if fs.Changed("ppm") {
		cfg.Transport = config.TransportPPM
		cfg.PPMPath = f.ppmPath
	}
	if fs.Changed("layer-timeout") {
		cfg.LayerTimeout = f.layerTimeout
	}

	if err := config.ValidateServerConfig(cfg); err != nil {
		return serverConfig{}, err
	}
	return serverConfig{ServerConfig: cfg}, nil
}
