package protocol

import (
	"bytes"
	"strconv"
)

// Decode parses one datagram. The returned pixel slice aliases buf and
// holds exactly Width*Height*3 bytes. Decode never reads past len(buf).
func Decode(buf []byte, hint Hint) (ImageMetaInfo, []byte, error) {
	s := scanner{buf: buf}
	var meta ImageMetaInfo

	magic, err := s.token(&meta)
	if err != nil {
		return ImageMetaInfo{}, nil, err
	}
	if string(magic) != Magic {
		return ImageMetaInfo{}, nil, ErrInvalidMagic
	}

	width, err := s.dimension(&meta)
	if err != nil {
		return ImageMetaInfo{}, nil, err
	}
	height, err := s.dimension(&meta)
	if err != nil {
		return ImageMetaInfo{}, nil, err
	}

	maxval, err := s.token(&meta)
	if err != nil {
		return ImageMetaInfo{}, nil, err
	}
	if string(maxval) != strconv.Itoa(Maxval) {
		return ImageMetaInfo{}, nil, ErrUnsupportedMaxval
	}

	// One whitespace byte separates maxval from the raster.
	if s.pos >= len(buf) {
		return ImageMetaInfo{}, nil, ErrTruncated
	}
	if !isSpace(buf[s.pos]) {
		return ImageMetaInfo{}, nil, ErrMalformedHeader
	}
	s.pos++

	// Compare by division first so the product cannot overflow int.
	if width > (len(buf)-s.pos)/(height*BytesPerPixel) {
		return ImageMetaInfo{}, nil, ErrTruncated
	}
	need := width * height * BytesPerPixel
	if s.err != nil {
		return ImageMetaInfo{}, nil, s.err
	}

	meta.Width = width
	meta.Height = height
	meta.Layer = clampLayer(meta.OffZ, hint.Layers)

	if hint.Width > 0 && hint.Height > 0 && offSurface(meta, hint) {
		return meta, nil, ErrOffSurface
	}
	return meta, buf[s.pos : s.pos+need : s.pos+need], nil
}

type scanner struct {
	buf []byte
	pos int
	// err records a malformed footer; reported once the header is read.
	err error
}

// token skips whitespace and comments and returns the next token.
func (s *scanner) token(meta *ImageMetaInfo) ([]byte, error) {
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '#':
			s.comment(meta)
		default:
			start := s.pos
			for s.pos < len(s.buf) && !isSpace(s.buf[s.pos]) && s.buf[s.pos] != '#' {
				s.pos++
			}
			return s.buf[start:s.pos], nil
		}
	}
	return nil, ErrTruncated
}

func (s *scanner) dimension(meta *ImageMetaInfo) (int, error) {
	tok, err := s.token(meta)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(tok), 10, 32)
	if err != nil || v == 0 || v > MaxDimension {
		return 0, ErrInvalidDimensions
	}
	return int(v), nil
}

// comment consumes a comment up to and including its newline and applies
// the footer if the comment is one.
func (s *scanner) comment(meta *ImageMetaInfo) {
	start := s.pos
	end := bytes.IndexByte(s.buf[start:], '\n')
	if end < 0 {
		s.pos = len(s.buf)
		end = len(s.buf)
	} else {
		end += start
		s.pos = end + 1
	}
	line := s.buf[start:end]
	if !bytes.HasPrefix(line, []byte(FooterPrefix)) {
		return
	}
	if err := parseFooter(line[len(FooterPrefix):], meta); err != nil && s.err == nil {
		s.err = err
	}
}

// parseFooter reads "offX offY [offZ]".
func parseFooter(b []byte, meta *ImageMetaInfo) error {
	fields := bytes.Fields(b)
	if len(fields) < 2 || len(fields) > 3 {
		return ErrMalformedHeader
	}
	vals := [3]int{}
	for i, f := range fields {
		v, err := strconv.ParseInt(string(f), 10, 32)
		if err != nil {
			return ErrMalformedHeader
		}
		vals[i] = int(v)
	}
	meta.OffX, meta.OffY, meta.OffZ = vals[0], vals[1], vals[2]
	return nil
}

func clampLayer(z, layers int) int {
	if layers <= 0 {
		layers = DefaultLayers
	}
	if z < 0 {
		return 0
	}
	if z >= layers {
		return layers - 1
	}
	return z
}

func offSurface(meta ImageMetaInfo, hint Hint) bool {
	return meta.OffX >= hint.Width ||
		meta.OffY >= hint.Height ||
		meta.OffX+meta.Width <= 0 ||
		meta.OffY+meta.Height <= 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
