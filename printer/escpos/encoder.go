// Package escpos frames device operations as ESC/POS byte commands and
// paces their delivery over a byte transport. The protocol has no
// read-back: every operation reports success or failure purely from
// whether the requested byte count was written.
package escpos

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"barograph/printer"
)

// ErrShortWrite reports a transport that accepted fewer bytes than a
// frame holds.
var ErrShortWrite = errors.New("short command write")

// Config carries the tuning knobs of the encoder: chunking of raster
// payloads, the settle delay after each command class, and the defaults
// Init programs into the device. Delays model physical latency (head
// heating, paper feed, cutter travel); zero them in tests.
type Config struct {
	// ChunkSize bounds how many raster payload bytes go out per write,
	// independent of image geometry.
	ChunkSize int

	// Defaults programmed by Init.
	Density    int // 0-15, higher prints darker
	BreakTime  int // 0-7, head heat recovery time
	LineHeight int // dots per text line, minimum 24

	InitDelay         time.Duration
	DensityDelay      time.Duration
	LineHeightDelay   time.Duration
	JustifyDelay      time.Duration
	FontSizeDelay     time.Duration
	PrintlnDelay      time.Duration
	HeaderDelay       time.Duration // after the raster header frame
	ChunkDelay        time.Duration // after each raster payload chunk
	BitmapSettleDelay time.Duration // after the final raster chunk
	FeedLineDelay     time.Duration // per fed line
	CutDelay          time.Duration // cutter mechanical travel
}

// DefaultConfig returns the pacing tuned against a TM-T88III on a 19200
// baud serial link.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         4096,
		Density:           8,
		BreakTime:         2,
		LineHeight:        32,
		InitDelay:         500 * time.Millisecond,
		DensityDelay:      100 * time.Millisecond,
		LineHeightDelay:   10 * time.Millisecond,
		JustifyDelay:      50 * time.Millisecond,
		FontSizeDelay:     50 * time.Millisecond,
		PrintlnDelay:      10 * time.Millisecond,
		HeaderDelay:       20 * time.Millisecond,
		ChunkDelay:        10 * time.Millisecond,
		BitmapSettleDelay: 50 * time.Millisecond,
		FeedLineDelay:     50 * time.Millisecond,
		CutDelay:          500 * time.Millisecond,
	}
}

// An Encoder drives one printer over a transport. Operations block for
// their settle delays and must not be invoked concurrently.
type Encoder struct {
	transport printer.Transport
	cfg       Config
}

func New(t printer.Transport, cfg Config) *Encoder {
	return &Encoder{transport: t, cfg: cfg}
}

// writeFrame sends one complete command frame, waits out the settle
// delay, and verifies the written count.
func (e *Encoder) writeFrame(frame []byte, settle time.Duration) error {
	n, err := e.transport.Write(frame)
	if err != nil {
		return fmt.Errorf("Couldn't write command frame: %w", err)
	}
	if err := e.transport.Flush(); err != nil {
		return fmt.Errorf("Couldn't flush command frame: %w", err)
	}
	time.Sleep(settle)
	if n != len(frame) {
		slog.Error("Command frame truncated", "wrote", n, "expected", len(frame))
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(frame))
	}
	return nil
}

// Init drains stale input, resets the printer and programs the
// configured density and line height. Call it once before any other
// operation.
func (e *Encoder) Init() error {
	if err := e.transport.ResetInput(); err != nil {
		return fmt.Errorf("Couldn't drain printer input: %w", err)
	}
	if err := e.writeFrame(initPrinter(), e.cfg.InitDelay); err != nil {
		return fmt.Errorf("Couldn't reset printer: %w", err)
	}
	if err := e.SetDensity(e.cfg.Density, e.cfg.BreakTime); err != nil {
		return err
	}
	return e.SetLineHeight(e.cfg.LineHeight)
}

// SetDensity programs the heating density (0-15) and heat break time
// (0-7). Out-of-range values are clamped, not rejected.
func (e *Encoder) SetDensity(density, breakTime int) error {
	density = clampInt(density, 0, 15)
	breakTime = clampInt(breakTime, 0, 7)
	if err := e.writeFrame(setDensity(byte(density), byte(breakTime)), e.cfg.DensityDelay); err != nil {
		return fmt.Errorf("Couldn't set print density: %w", err)
	}
	return nil
}

// SetLineHeight programs the line advance in dots. The device floor is
// 24 dots.
func (e *Encoder) SetLineHeight(height int) error {
	height = clampInt(height, 24, 255)
	if err := e.writeFrame(setLineHeight(byte(height)), e.cfg.LineHeightDelay); err != nil {
		return fmt.Errorf("Couldn't set line height: %w", err)
	}
	return nil
}

// SetJustify aligns subsequent text and bitmaps.
func (e *Encoder) SetJustify(justify Justify) error {
	if err := e.writeFrame(setJustify(justify), e.cfg.JustifyDelay); err != nil {
		return fmt.Errorf("Couldn't set justification: %w", err)
	}
	return nil
}

// SetFontSize scales the text cell by whole multiples, 1-8 in each axis.
// Out-of-range values are clamped.
func (e *Encoder) SetFontSize(width, height int) error {
	width = clampInt(width, 1, 8)
	height = clampInt(height, 1, 8)
	size := byte((width-1)<<4 | (height - 1))
	if err := e.writeFrame(setFontSize(size), e.cfg.FontSizeDelay); err != nil {
		return fmt.Errorf("Couldn't set font size: %w", err)
	}
	return nil
}

// Println prints a line of text using the printer's own font. Bytes
// outside ASCII are replaced, matching the device's character table.
func (e *Encoder) Println(text string) error {
	line := make([]byte, 0, len(text)+1)
	for _, r := range text {
		if r > 0x7F {
			line = append(line, '?')
		} else {
			line = append(line, byte(r))
		}
	}
	line = append(line, '\n')
	if err := e.writeFrame(line, e.cfg.PrintlnDelay); err != nil {
		return fmt.Errorf("Couldn't print text line: %w", err)
	}
	return nil
}

// PrintBitmap streams a packed raster image. The width must be a whole
// number of bytes and data must hold width/8*height bytes; the header's
// size fields are 16 bits, capping width/8 and height at 65535. The
// header frame must write in full before any payload goes out; payload
// chunks advance by the transport's reported count, so a transport that
// dribbles still completes, while one that reports zero progress aborts
// the print. Short chunk writes are logged and never retried; the bytes
// simply go out with the next chunk.
func (e *Encoder) PrintBitmap(width, height int, data []byte) error {
	if width <= 0 || width%8 != 0 {
		return fmt.Errorf("Bitmap width %d is not a positive multiple of 8", width)
	}
	if height <= 0 {
		return fmt.Errorf("Bitmap height %d is not positive", height)
	}
	widthBytes := width / 8
	if widthBytes > 0xFFFF || height > 0xFFFF {
		return fmt.Errorf("Bitmap %dx%d overflows the header's 16-bit size fields", width, height)
	}
	totalBytes := widthBytes * height
	if len(data) < totalBytes {
		return fmt.Errorf("Bitmap data holds %d bytes, %dx%d needs %d", len(data), width, height, totalBytes)
	}

	header := printBitmapHeader(uint16(widthBytes), uint16(height))
	if err := e.writeFrame(header, e.cfg.HeaderDelay); err != nil {
		return fmt.Errorf("Couldn't write bitmap header: %w", err)
	}

	sent := 0
	for sent < totalBytes {
		chunk := totalBytes - sent
		if chunk > e.cfg.ChunkSize {
			chunk = e.cfg.ChunkSize
		}

		n, err := e.transport.Write(data[sent : sent+chunk])
		if err != nil {
			return fmt.Errorf("Couldn't write bitmap data at byte %d of %d: %w", sent, totalBytes, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: no progress at byte %d of %d", ErrShortWrite, sent, totalBytes)
		}
		if n != chunk {
			slog.Warn("Bitmap chunk truncated", "wrote", n, "expected", chunk, "sent", sent)
		}
		sent += n

		if err := e.transport.Flush(); err != nil {
			return fmt.Errorf("Couldn't flush bitmap data: %w", err)
		}
		time.Sleep(e.cfg.ChunkDelay)
	}
	time.Sleep(e.cfg.BitmapSettleDelay)

	slog.Debug("Bitmap transmitted", "width", width, "height", height, "bytes", sent)
	return nil
}

// Feed advances the paper by whole blank lines, waiting in proportion to
// the distance travelled.
func (e *Encoder) Feed(lines int) error {
	lines = clampInt(lines, 0, 255)
	settle := time.Duration(lines) * e.cfg.FeedLineDelay
	if err := e.writeFrame(feedLines(byte(lines)), settle); err != nil {
		return fmt.Errorf("Couldn't feed paper: %w", err)
	}
	return nil
}

// Cut fires the paper cutter and waits out its mechanical travel.
func (e *Encoder) Cut() error {
	if err := e.writeFrame(cutPaper(), e.cfg.CutDelay); err != nil {
		return fmt.Errorf("Couldn't cut paper: %w", err)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
