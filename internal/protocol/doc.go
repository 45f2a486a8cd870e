// Package protocol owns the pixel frame wire contract.
//
// A frame is a binary PPM (P6) image whose header carries an extra comment
// line, the footer, with the placement of the image on the display:
//
//	P6
//	<width> <height>
//	#FT: <offX> <offY> <offZ>
//	255
//	<width*height*3 raw RGB bytes>
//
// Generic PPM readers skip the comment and still show the image. The third
// footer value selects the destination layer on the display server. Each
// frame is complete on its own, so any subset of the frames of one canvas
// can be applied in any order.
package protocol
