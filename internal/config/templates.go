package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `# Display geometry in pixels.
width = 45
height = 35
layers = 16

# Each port runs its own ingest loop; all of them draw on one surface.
ports = [1337]
recv_buffer_bytes = 8388608

# Overlay layers (1..layers-1) are cleared after this much idle time.
layer_timeout = "15s"

# Admin HTTP (/health, /metrics, /stats). Empty disables it.
admin_addr = "127.0.0.1:9337"
cors_origins = ["http://localhost:3000"]

# "discard" or "ppm".
transport = "ppm"
ppm_path = "display.ppm"
`
