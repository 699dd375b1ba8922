// This file implements the ESC/POS command byte sequences understood by
// Epson TM-T88 class receipt printers.

package escpos

// Control characters
const (
	Dc2 = 0x12
	Esc = 0x1B
	GS  = 0x1D
)

// Type alias for the alignment of printed text and bitmaps
type Justify byte

const (
	Left   Justify = 0x00
	Centre Justify = 0x01
	Right  Justify = 0x02
)

// Resets the printer to its power-on state & prepares it to accept commands
func initPrinter() []byte {
	return []byte{Esc, 0x40}
}

// Sets the heating density and heat break time. Both values must already
// be in range: density 0-15, breakTime 0-7
func setDensity(density, breakTime byte) []byte {
	return []byte{Dc2, 0x23, (density << 4) | breakTime}
}

// Sets the line advance height in dots for text and feeds
func setLineHeight(height byte) []byte {
	return []byte{Esc, 0x33, height}
}

// Sets the alignment/justification of subsequent text and bitmaps
func setJustify(justify Justify) []byte {
	return []byte{Esc, 0x61, byte(justify)}
}

// Sets the text cell scale; size packs the width and height multipliers
// as (width-1)<<4 | (height-1)
func setFontSize(size byte) []byte {
	return []byte{GS, 0x21, size}
}

// Prepares the printer to receive raster bitmap data of the given
// dimensions. widthBytes is the row width in bytes, 8 pixels per byte,
// and heightBits the number of rows; both are encoded little-endian.
// After this command is written, (widthBytes * heightBits) bytes of
// bitmap data must then be written
func printBitmapHeader(widthBytes, heightBits uint16) []byte {
	return []byte{
		GS, 0x76, 0x30, 0x00,
		byte(widthBytes & 0xFF), byte(widthBytes >> 8),
		byte(heightBits & 0xFF), byte(heightBits >> 8),
	}
}

// Makes the printer spool through a number of blank lines.
func feedLines(n byte) []byte {
	return []byte{Esc, 0x64, n}
}

// Fires the mechanical paper cutter.
func cutPaper() []byte {
	return []byte{GS, 0x56, 0x00}
}
