// Package bitfont holds the fixed 5x7 bitmap font used for chart labels
// and captions.
package bitfont

// A Glyph is one character cell: 7 rows of 5 pixels. Bit 7 of each row is
// the leftmost pixel and the low 3 bits are unused and zero.
type Glyph = [7]byte

// A Font maps characters to glyphs.
type Font map[rune]Glyph

// Lookup returns the glyph for c, folding lowercase letters to their
// uppercase forms. ok is false when the font has no glyph for c.
func (f Font) Lookup(c rune) (Glyph, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	g, ok := f[c]
	return g, ok
}

// Basic covers the digits and the letters that appear in axis labels and
// captions. Characters outside the set (including space) have no glyph,
// which leaves a blank cell when drawn.
var Basic = Font{
	'0': {0x70, 0x88, 0x88, 0x88, 0x88, 0x88, 0x70},
	'1': {0x20, 0x60, 0x20, 0x20, 0x20, 0x20, 0x70},
	'2': {0x70, 0x88, 0x08, 0x10, 0x20, 0x40, 0xF8},
	'3': {0x70, 0x88, 0x08, 0x30, 0x08, 0x88, 0x70},
	'4': {0x10, 0x30, 0x50, 0x90, 0xF8, 0x10, 0x10},
	'5': {0xF8, 0x80, 0xF0, 0x08, 0x08, 0x88, 0x70},
	'6': {0x70, 0x80, 0x80, 0xF0, 0x88, 0x88, 0x70},
	'7': {0xF8, 0x08, 0x10, 0x20, 0x40, 0x40, 0x40},
	'8': {0x70, 0x88, 0x88, 0x70, 0x88, 0x88, 0x70},
	'9': {0x70, 0x88, 0x88, 0x78, 0x08, 0x08, 0x70},
	'E': {0xF8, 0x80, 0x80, 0xF0, 0x80, 0x80, 0xF8},
	'I': {0x70, 0x20, 0x20, 0x20, 0x20, 0x20, 0x70},
	'K': {0x88, 0x90, 0xA0, 0xC0, 0xA0, 0x90, 0x88},
	'M': {0x88, 0xD8, 0xA8, 0xA8, 0x88, 0x88, 0x88},
	'P': {0xF0, 0x88, 0x88, 0xF0, 0x80, 0x80, 0x80},
	'R': {0xF0, 0x88, 0x88, 0xF0, 0xA0, 0x90, 0x88},
	'S': {0x78, 0x80, 0x80, 0x70, 0x08, 0x08, 0xF0},
	'T': {0xF8, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20},
	'U': {0x88, 0x88, 0x88, 0x88, 0x88, 0x88, 0x70},
}
