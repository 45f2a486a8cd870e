package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	TransportDiscard = "discard"
	TransportPPM     = "ppm"
)

// ServerConfig configures the display server process.
type ServerConfig struct {
	Width        int
	Height       int
	Layers       int
	Ports        []int
	RecvBuffer   int
	LayerTimeout time.Duration
	AdminAddr    string
	CorsOrigins  []string
	Transport    string
	PPMPath      string
}

type fileServerConfig struct {
	Width        int      `toml:"width"`
	Height       int      `toml:"height"`
	Layers       int      `toml:"layers"`
	Ports        []int    `toml:"ports"`
	RecvBuffer   int      `toml:"recv_buffer_bytes"`
	LayerTimeout string   `toml:"layer_timeout"`
	AdminAddr    string   `toml:"admin_addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	Transport    string   `toml:"transport"`
	PPMPath      string   `toml:"ppm_path"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Width:        45,
		Height:       35,
		Layers:       16,
		Ports:        []int{1337},
		RecvBuffer:   8 * 1024 * 1024,
		LayerTimeout: 15 * time.Second,
		AdminAddr:    "",
		CorsOrigins:  []string{"http://localhost:3000"},
		Transport:    TransportDiscard,
	}
}

// LoadServerConfig overlays the keys defined in path onto the defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw fileServerConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("width") {
		cfg.Width = raw.Width
	}
	if meta.IsDefined("height") {
		cfg.Height = raw.Height
	}
	if meta.IsDefined("layers") {
		cfg.Layers = raw.Layers
	}
	if meta.IsDefined("ports") {
		cfg.Ports = raw.Ports
	}
	if meta.IsDefined("recv_buffer_bytes") {
		cfg.RecvBuffer = raw.RecvBuffer
	}
	if meta.IsDefined("layer_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.LayerTimeout))
		if err != nil {
			return ServerConfig{}, fmt.Errorf("parse layer_timeout: %w", err)
		}
		cfg.LayerTimeout = d
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("ppm_path") {
		cfg.PPMPath = strings.TrimSpace(raw.PPMPath)
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("server config invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Layers <= 0 {
		return fmt.Errorf("server config layers must be positive")
	}
	if len(cfg.Ports) == 0 {
		return fmt.Errorf("server config missing ports")
	}
	seen := make(map[int]bool, len(cfg.Ports))
	for i, port := range cfg.Ports {
		if port < 0 || port > 65535 {
			return fmt.Errorf("port[%d] out of range: %d", i, port)
		}
		if port != 0 && seen[port] {
			return fmt.Errorf("port[%d] duplicated: %d", i, port)
		}
		seen[port] = true
	}
	if cfg.LayerTimeout < 0 {
		return fmt.Errorf("server config layer_timeout negative")
	}
	switch cfg.Transport {
	case TransportDiscard:
	case TransportPPM:
		if cfg.PPMPath == "" {
			return fmt.Errorf("server config ppm transport requires ppm_path")
		}
	default:
		return fmt.Errorf("server config unknown transport %q", cfg.Transport)
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
