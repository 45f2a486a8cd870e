//go:build !linux && !darwin

package transmit

import "io"

func writeDatagram(w io.Writer, header, payload []byte) (int, error) {
	return writeJoined(w, header, payload)
}

func isTransient(error) bool {
	return false
}
