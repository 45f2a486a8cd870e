//go:build !linux

package endpoint

func tuneSender(int) error {
	return nil
}
