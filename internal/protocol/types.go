package protocol

const (
	// Magic is the binary PPM signature.
	Magic = "P6"
	// Maxval is the only channel depth the protocol carries.
	Maxval = 255
	// FooterPrefix starts the placement comment.
	FooterPrefix = "#FT:"
	// HeaderReserve bounds the textual header of any frame whose offsets
	// fit in 32 bits.
	HeaderReserve = 64
	// MaxDimension bounds decoded width and height.
	MaxDimension = 65535
	// DefaultLayers is the layer count assumed when a Hint leaves it unset.
	DefaultLayers = 16
	// BytesPerPixel is the packed RGB size.
	BytesPerPixel = 3
)

// Header is the placement and size of one frame.
type Header struct {
	Width  int
	Height int
	OffX   int
	OffY   int
	OffZ   int
}

// PayloadLen is the number of pixel bytes following the header.
func (h Header) PayloadLen() int {
	return h.Width * h.Height * BytesPerPixel
}

// Hint describes the destination surface a frame is decoded for.
type Hint struct {
	Width  int
	Height int
	Layers int
}

// ImageMetaInfo is the decoded placement of a frame.
type ImageMetaInfo struct {
	Width  int
	Height int
	Layer  int
	OffX   int
	OffY   int
	OffZ   int
}
