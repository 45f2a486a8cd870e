package protocol

import "errors"

var (
	ErrInvalidMagic      = errors.New("protocol: invalid magic")
	ErrInvalidDimensions = errors.New("protocol: invalid dimensions")
	ErrUnsupportedMaxval = errors.New("protocol: unsupported maxval")
	ErrMalformedHeader   = errors.New("protocol: malformed header")
	ErrTruncated         = errors.New("protocol: truncated data")
	ErrInvalidLength     = errors.New("protocol: invalid length")
	ErrOffSurface        = errors.New("protocol: frame outside destination surface")
)
