package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
)

// printGamma lifts midtones before dithering; thermal heads print darker
// than a display shows, and 0.5 is the empirical match.
const printGamma = 0.5

// Image returns a read-only image.Image view of the canvas, with set
// pixels rendered black. Drawing on the canvas after the call shows
// through the view.
func (c *Canvas) Image() image.Image {
	return (*canvasImage)(c)
}

type canvasImage Canvas

func (ci *canvasImage) ColorModel() color.Model {
	return color.GrayModel
}

func (ci *canvasImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, ci.width, ci.height)
}

func (ci *canvasImage) At(x, y int) color.Color {
	if (*Canvas)(ci).GetBit(x, y) != 0 {
		return color.Gray{Y: 0}
	}
	return color.Gray{Y: 0xFF}
}

// FromImage converts an arbitrary image into a canvas no wider than
// maxWidth, scaling with Catmull-Rom interpolation and reducing to black
// and white with serpentine Floyd-Steinberg dithering. The result width is
// rounded down to a whole number of bytes.
func FromImage(img image.Image, maxWidth int) (*Canvas, error) {
	srcWidth := img.Bounds().Dx()
	srcHeight := img.Bounds().Dy()
	if srcWidth <= 0 || srcHeight <= 0 {
		return nil, fmt.Errorf("image has empty bounds %v", img.Bounds())
	}

	width := srcWidth
	if width > maxWidth {
		width = maxWidth
	}
	width &^= bitsPerWord - 1
	if width <= 0 {
		return nil, fmt.Errorf("image too narrow to print: %d pixels", srcWidth)
	}
	height := srcHeight * width / srcWidth
	if height <= 0 {
		height = 1
	}

	scaledBounds := image.Rect(0, 0, width, height)
	scaled := image.NewRGBA(scaledBounds)
	draw.CatmullRom.Scale(scaled, scaledBounds, img, img.Bounds(), draw.Over, nil)

	gray := image.NewGray16(scaledBounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(scaled.At(x, y)).(color.Gray16)
			lifted := math.Pow(float64(g.Y)/float64(0xFFFF), printGamma)
			gray.SetGray16(x, y, color.Gray16{Y: uint16(lifted * float64(0xFFFF))})
		}
	}

	ditherer := dither.NewDitherer([]color.Color{color.Black, color.White})
	ditherer.Matrix = dither.FloydSteinberg
	ditherer.Serpentine = true
	dithered := ditherer.DitherPaletted(gray)

	// Whichever palette entry is closer to white stays unset; the other
	// prints as a black dot.
	var inked [2]bool
	if dithered.Palette.Index(color.White) == 0 {
		inked = [2]bool{false, true}
	} else {
		inked = [2]bool{true, false}
	}

	c, err := New(width, height, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't allocate canvas for image: %w", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if inked[dithered.ColorIndexAt(x, y)] {
				c.SetPixel(x, y)
			}
		}
	}
	return c, nil
}
