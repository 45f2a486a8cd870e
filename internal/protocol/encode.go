package protocol

import "strconv"

// AppendHeader appends the textual frame header for h to dst. Pass a
// caller-owned scratch slice (for example a stack array of HeaderReserve
// bytes) to format without allocating.
func AppendHeader(dst []byte, h Header) []byte {
	dst = append(dst, Magic...)
	dst = append(dst, '\n')
	dst = strconv.AppendInt(dst, int64(h.Width), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(h.Height), 10)
	dst = append(dst, '\n')
	dst = append(dst, FooterPrefix...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(h.OffX), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(h.OffY), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(h.OffZ), 10)
	dst = append(dst, '\n')
	dst = strconv.AppendInt(dst, Maxval, 10)
	dst = append(dst, '\n')
	return dst
}

// Encode returns one contiguous frame: header followed by pix.
func Encode(h Header, pix []byte) ([]byte, error) {
	if h.Width <= 0 || h.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(pix) != h.PayloadLen() {
		return nil, ErrInvalidLength
	}
	out := make([]byte, 0, HeaderReserve+len(pix))
	out = AppendHeader(out, h)
	return append(out, pix...), nil
}
