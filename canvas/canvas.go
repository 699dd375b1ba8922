// Package canvas implements a packed monochrome bitmap with the drawing
// primitives needed for chart rendering: pixels, dashed grid lines, scaled
// bitmap-font text (optionally rotated for sideways printing) and thick
// Bresenham line segments.
//
// Pixel data is packed one bit per pixel, row-major, most significant bit
// first, which is the layout raster-capable ESC/POS printers accept
// directly.
package canvas

import "fmt"

const bitsPerWord = 8

// A Font resolves characters to 5x7 glyphs. Each of the 7 bytes is one
// glyph row with the leftmost pixel in bit 7.
type Font interface {
	Lookup(c rune) ([7]byte, bool)
}

// A Canvas is a packed 1-bit-per-pixel image. The zero Canvas is invalid:
// every drawing operation on it is a safe no-op. A canvas that fails
// construction stays invalid forever; callers that care should check
// Valid before relying on the output.
type Canvas struct {
	data         []byte
	width        int
	height       int
	bytesPerLine int
	font         Font
}

// New allocates a white canvas. The width must be a positive multiple of 8
// so that rows pack into whole bytes.
func New(width, height int, font Font) (*Canvas, error) {
	if width <= 0 || width%bitsPerWord != 0 {
		return nil, fmt.Errorf("canvas width %d is not a positive multiple of %d", width, bitsPerWord)
	}
	if height <= 0 {
		return nil, fmt.Errorf("canvas height %d is not positive", height)
	}
	bytesPerLine := width / bitsPerWord
	return &Canvas{
		data:         make([]byte, bytesPerLine*height),
		width:        width,
		height:       height,
		bytesPerLine: bytesPerLine,
		font:         font,
	}, nil
}

func (c *Canvas) Width() int {
	return c.width
}

func (c *Canvas) Height() int {
	return c.height
}

func (c *Canvas) BytesPerLine() int {
	return c.bytesPerLine
}

// Data returns the packed pixel rows. Callers must treat the slice as
// read-only.
func (c *Canvas) Data() []byte {
	return c.data
}

// Valid reports whether the canvas holds a usable buffer.
func (c *Canvas) Valid() bool {
	return c.data != nil
}

func (c *Canvas) String() string {
	return fmt.Sprintf("Canvas(%d,%d)", c.width, c.height)
}

// Clear resets every pixel to white.
func (c *Canvas) Clear() {
	for i := range c.data {
		c.data[i] = 0
	}
}

// SetPixel sets the pixel at (x, y) to black. Coordinates outside the
// canvas are silently ignored.
func (c *Canvas) SetPixel(x, y int) {
	if c.data == nil || x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	index := (x / bitsPerWord) + y*c.bytesPerLine
	c.data[index] |= 0x80 >> (x & 7)
}

// GetBit returns 1 when the pixel at (x, y) is black. Out-of-range
// coordinates read as white.
func (c *Canvas) GetBit(x, y int) byte {
	if c.data == nil || x < 0 || x >= c.width || y < 0 || y >= c.height {
		return 0
	}
	index := (x / bitsPerWord) + y*c.bytesPerLine
	return (c.data[index] >> (7 - (x & 7))) & 1
}

// DrawVerticalLine paints the pixels from yStart up to but not including
// yEnd in column x. A negative yEnd means the bottom edge. Dashed lines
// paint 4 pixels on, 4 off, phased on the absolute y coordinate so that
// parallel lines dash in step.
func (c *Canvas) DrawVerticalLine(x, yStart, yEnd int, dashed bool) {
	if yEnd < 0 {
		yEnd = c.height
	}
	for y := yStart; y < yEnd; y++ {
		if !dashed || (y/4)%2 == 0 {
			c.SetPixel(x, y)
		}
	}
}

// DrawHorizontalLine paints the pixels from xStart up to but not including
// xEnd in row y. A negative xEnd means the right edge. Dashing works as in
// DrawVerticalLine, phased on the absolute x coordinate.
func (c *Canvas) DrawHorizontalLine(y, xStart, xEnd int, dashed bool) {
	if xEnd < 0 {
		xEnd = c.width
	}
	for x := xStart; x < xEnd; x++ {
		if !dashed || (x/4)%2 == 0 {
			c.SetPixel(x, y)
		}
	}
}

// DrawChar paints one character with its top-left cell corner at (x, y),
// each glyph bit scaled to a size-by-size block. Characters without a
// glyph paint nothing. With rotate90 the glyph is turned a quarter turn
// clockwise so text reads top to bottom on paper that feeds row-first.
func (c *Canvas) DrawChar(ch rune, x, y, size int, rotate90 bool) {
	if c.data == nil || c.font == nil {
		return
	}
	glyph, ok := c.font.Lookup(ch)
	if !ok {
		return
	}

	for row := 0; row < 7; row++ {
		line := glyph[row]
		for col := 0; col < 5; col++ {
			if line&(0x80>>col) == 0 {
				continue
			}
			var px, py int
			if rotate90 {
				px = x + (6-row)*size
				py = y + col*size
			} else {
				px = x + col*size
				py = y + row*size
			}
			for sy := 0; sy < size; sy++ {
				for sx := 0; sx < size; sx++ {
					c.SetPixel(px+sx, py+sy)
				}
			}
		}
	}
}

// DrawText paints a string starting at (x, y). Rotated text advances down
// the canvas by 8*size per character (a 7-row glyph plus one row of
// spacing); unrotated text advances right by 6*size (a 5-column glyph plus
// one column of spacing).
func (c *Canvas) DrawText(text string, x, y, size int, rotate90 bool) {
	offset := 0
	for _, ch := range text {
		if rotate90 {
			c.DrawChar(ch, x, y+offset, size, rotate90)
			offset += 8 * size
		} else {
			c.DrawChar(ch, x+offset, y, size, rotate90)
			offset += 6 * size
		}
	}
}

// DrawLine draws a straight segment from (x0, y0) to (x1, y1) by Bresenham
// stepping, stamping a thickness-by-thickness filled square at every step.
// The stamp approximates a thick stroke: joints are square, not round, and
// even thicknesses sit one pixel off-center toward the top left. That is a
// known limitation of the stamp approach, not something callers need to
// correct for.
func (c *Canvas) DrawLine(x0, y0, x1, y1, thickness int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	half := thickness / 2
	for {
		for ty := -half; ty < thickness-half; ty++ {
			for tx := -half; tx < thickness-half; tx++ {
				c.SetPixel(x0+tx, y0+ty)
			}
		}

		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
