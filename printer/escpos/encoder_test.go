package escpos

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// sinkTransport accepts everything and records the accepted bytes and
// per-call sizes.
type sinkTransport struct {
	written bytes.Buffer
	calls   []int
	flushes int
	resets  int
}

func (s *sinkTransport) Write(p []byte) (int, error) {
	s.calls = append(s.calls, len(p))
	s.written.Write(p)
	return len(p), nil
}

func (s *sinkTransport) Read(p []byte) (int, error) { return 0, nil }
func (s *sinkTransport) Flush() error               { s.flushes++; return nil }
func (s *sinkTransport) ResetInput() error          { s.resets++; return nil }
func (s *sinkTransport) Close() error               { return nil }

// dribbleTransport accepts the first write in full (the header) and
// afterwards only ever takes half of what it is offered, rounded up.
type dribbleTransport struct {
	sinkTransport
	started bool
}

func (d *dribbleTransport) Write(p []byte) (int, error) {
	if !d.started {
		d.started = true
		return d.sinkTransport.Write(p)
	}
	n := (len(p) + 1) / 2
	d.calls = append(d.calls, len(p))
	d.written.Write(p[:n])
	return n, nil
}

// shortTransport accepts half of every write, including the first.
type shortTransport struct {
	sinkTransport
}

func (s *shortTransport) Write(p []byte) (int, error) {
	n := len(p) / 2
	s.calls = append(s.calls, len(p))
	s.written.Write(p[:n])
	return n, nil
}

// stalledTransport accepts the first write, then reports zero progress
// forever.
type stalledTransport struct {
	sinkTransport
	started bool
}

func (s *stalledTransport) Write(p []byte) (int, error) {
	if !s.started {
		s.started = true
		return s.sinkTransport.Write(p)
	}
	return 0, nil
}

var errBroken = errors.New("transport broken")

// brokenTransport fails every write after the first.
type brokenTransport struct {
	sinkTransport
	started bool
}

func (b *brokenTransport) Write(p []byte) (int, error) {
	if !b.started {
		b.started = true
		return b.sinkTransport.Write(p)
	}
	return 0, errBroken
}

// zeroDelayConfig keeps the default framing but strips all pacing so
// tests run instantly.
func zeroDelayConfig() Config {
	cfg := DefaultConfig()
	cfg.InitDelay = 0
	cfg.DensityDelay = 0
	cfg.LineHeightDelay = 0
	cfg.JustifyDelay = 0
	cfg.FontSizeDelay = 0
	cfg.PrintlnDelay = 0
	cfg.HeaderDelay = 0
	cfg.ChunkDelay = 0
	cfg.BitmapSettleDelay = 0
	cfg.FeedLineDelay = 0
	cfg.CutDelay = 0
	return cfg
}

func assertWritten(t *testing.T, sink *sinkTransport, want []byte) {
	t.Helper()
	if diff := cmp.Diff(want, sink.written.Bytes()); diff != "" {
		t.Errorf("Written bytes don't match (-want +got):\n%s", diff)
	}
}

func TestInitSequence(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())

	if err := e.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if sink.resets != 1 {
		t.Errorf("Init drained input %d times, expected once", sink.resets)
	}

	want := []byte{
		Esc, 0x40, // reset
		Dc2, 0x23, 0x82, // density 8, break time 2
		Esc, 0x33, 32, // line height
	}
	assertWritten(t, sink, want)
}

func TestSetDensityClamps(t *testing.T) {
	cases := []struct {
		density, breakTime int
		param              byte
	}{
		{8, 2, 0x82},
		{15, 7, 0xF7},
		{20, 9, 0xF7},
		{-5, -1, 0x00},
		{0, 0, 0x00},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("density %d break %d", tc.density, tc.breakTime), func(t *testing.T) {
			sink := &sinkTransport{}
			e := New(sink, zeroDelayConfig())
			if err := e.SetDensity(tc.density, tc.breakTime); err != nil {
				t.Fatalf("SetDensity failed: %v", err)
			}
			assertWritten(t, sink, []byte{Dc2, 0x23, tc.param})
		})
	}
}

func TestSetLineHeightFloorsAt24(t *testing.T) {
	for _, tc := range []struct {
		height int
		value  byte
	}{
		{10, 24},
		{24, 24},
		{32, 32},
		{300, 255},
	} {
		sink := &sinkTransport{}
		e := New(sink, zeroDelayConfig())
		if err := e.SetLineHeight(tc.height); err != nil {
			t.Fatalf("SetLineHeight(%d) failed: %v", tc.height, err)
		}
		assertWritten(t, sink, []byte{Esc, 0x33, tc.value})
	}
}

func TestSetJustify(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())
	if err := e.SetJustify(Centre); err != nil {
		t.Fatalf("SetJustify failed: %v", err)
	}
	assertWritten(t, sink, []byte{Esc, 0x61, 0x01})
}

func TestSetFontSizeEncoding(t *testing.T) {
	cases := []struct {
		width, height int
		size          byte
	}{
		{1, 1, 0x00},
		{2, 2, 0x11},
		{8, 8, 0x77},
		{0, 9, 0x07},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%dx%d", tc.width, tc.height), func(t *testing.T) {
			sink := &sinkTransport{}
			e := New(sink, zeroDelayConfig())
			if err := e.SetFontSize(tc.width, tc.height); err != nil {
				t.Fatalf("SetFontSize failed: %v", err)
			}
			assertWritten(t, sink, []byte{GS, 0x21, tc.size})
		})
	}
}

func TestPrintlnReplacesNonASCII(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())
	if err := e.Println("25K±"); err != nil {
		t.Fatalf("Println failed: %v", err)
	}
	assertWritten(t, sink, []byte("25K?\n"))
}

func TestFeedClampsLineCount(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())
	if err := e.Feed(3); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if err := e.Feed(300); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	assertWritten(t, sink, []byte{Esc, 0x64, 3, Esc, 0x64, 255})
}

func TestCut(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())
	if err := e.Cut(); err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	assertWritten(t, sink, []byte{GS, 0x56, 0x00})
}

func aTestBitmap(width, height int) []byte {
	data := make([]byte, width/8*height)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestPrintBitmapFrames(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())

	data := aTestBitmap(16, 16)
	if err := e.PrintBitmap(16, 16, data); err != nil {
		t.Fatalf("PrintBitmap failed: %v", err)
	}

	want := append([]byte{GS, 0x76, 0x30, 0x00, 2, 0, 16, 0}, data...)
	assertWritten(t, sink, want)
}

func TestPrintBitmapLittleEndianHeader(t *testing.T) {
	sink := &sinkTransport{}
	e := New(sink, zeroDelayConfig())

	// 512 pixels = 64 width bytes; 1280 rows = 0x0500.
	data := make([]byte, 64*1280)
	if err := e.PrintBitmap(512, 1280, data); err != nil {
		t.Fatalf("PrintBitmap failed: %v", err)
	}

	header := sink.written.Bytes()[:8]
	want := []byte{GS, 0x76, 0x30, 0x00, 64, 0, 0x00, 0x05}
	if diff := cmp.Diff(want, header); diff != "" {
		t.Errorf("Header doesn't match (-want +got):\n%s", diff)
	}
}

func TestPrintBitmapChunksPayload(t *testing.T) {
	cfg := zeroDelayConfig()
	cfg.ChunkSize = 8
	sink := &sinkTransport{}
	e := New(sink, cfg)

	data := aTestBitmap(16, 16)
	if err := e.PrintBitmap(16, 16, data); err != nil {
		t.Fatalf("PrintBitmap failed: %v", err)
	}

	// One 8-byte header call, then 32 payload bytes in 8-byte chunks.
	if diff := cmp.Diff([]int{8, 8, 8, 8, 8}, sink.calls); diff != "" {
		t.Errorf("Write call sizes don't match (-want +got):\n%s", diff)
	}
}

func TestPrintBitmapAccumulatesAcrossShortWrites(t *testing.T) {
	d := &dribbleTransport{}
	e := New(d, zeroDelayConfig())

	data := aTestBitmap(16, 16)
	if err := e.PrintBitmap(16, 16, data); err != nil {
		t.Fatalf("PrintBitmap failed despite eventual progress: %v", err)
	}

	want := append([]byte{GS, 0x76, 0x30, 0x00, 2, 0, 16, 0}, data...)
	assertWritten(t, &d.sinkTransport, want)
	if len(d.calls) <= 2 {
		t.Errorf("Expected several dribbled writes, saw %d calls", len(d.calls))
	}
}

func TestPrintBitmapRejectsShortHeader(t *testing.T) {
	s := &shortTransport{}
	e := New(s, zeroDelayConfig())

	err := e.PrintBitmap(16, 16, aTestBitmap(16, 16))
	if !errors.Is(err, ErrShortWrite) {
		t.Fatalf("Expected ErrShortWrite, got %v", err)
	}
	if s.written.Len() != 4 {
		t.Errorf("Transport holds %d bytes, expected only the 4 accepted header bytes", s.written.Len())
	}
}

func TestPrintBitmapAbortsWithoutProgress(t *testing.T) {
	s := &stalledTransport{}
	e := New(s, zeroDelayConfig())

	err := e.PrintBitmap(16, 16, aTestBitmap(16, 16))
	if !errors.Is(err, ErrShortWrite) {
		t.Fatalf("Expected ErrShortWrite, got %v", err)
	}
}

func TestPrintBitmapPropagatesTransportErrors(t *testing.T) {
	b := &brokenTransport{}
	e := New(b, zeroDelayConfig())

	err := e.PrintBitmap(16, 16, aTestBitmap(16, 16))
	if !errors.Is(err, errBroken) {
		t.Fatalf("Expected the transport error, got %v", err)
	}
}

func TestPrintBitmapValidatesArguments(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		data          []byte
	}{
		{"width not a byte multiple", 10, 8, make([]byte, 80)},
		{"zero width", 0, 8, nil},
		{"zero height", 16, 0, nil},
		{"width over 16 bits", (0xFFFF + 1) * 8, 8, nil},
		{"height over 16 bits", 16, 0xFFFF + 1, nil},
		{"short data", 16, 16, make([]byte, 16)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &sinkTransport{}
			e := New(sink, zeroDelayConfig())
			if err := e.PrintBitmap(tc.width, tc.height, tc.data); err == nil {
				t.Fatal("Expected an error")
			}
			if sink.written.Len() != 0 {
				t.Errorf("Invalid call still wrote %d bytes", sink.written.Len())
			}
		})
	}
}
