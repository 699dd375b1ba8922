package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	_ "golang.org/x/image/bmp"

	"barograph/bitfont"
	"barograph/canvas"
	"barograph/chart"
	"barograph/printer"
	"barograph/printer/escpos"
)

type options struct {
	port      string
	baud      int
	bluetooth string

	pattern   int
	points    int
	seed      uint
	thickness int
	title     string

	imagePath string
	preview   string

	cut       bool
	listPorts bool
	loopback  bool
	verbose   bool
}

func parseOptions() options {
	var opts options
	flag.StringVar(&opts.port, "port", "/dev/ttyUSB0", "serial device the printer is attached to")
	flag.IntVar(&opts.baud, "baud", 19200, "serial baud rate")
	flag.StringVar(&opts.bluetooth, "bluetooth", "", "connect to the named Bluetooth printer instead of serial")
	flag.IntVar(&opts.pattern, "pattern", chart.PatternQuadratic, "curve pattern: 1 quadratic rise, 2 linear rise")
	flag.IntVar(&opts.points, "points", 4800, "number of raw pressure samples to synthesize")
	flag.UintVar(&opts.seed, "seed", 0, "curve generator seed; 0 seeds from the clock")
	flag.IntVar(&opts.thickness, "thickness", 1, "curve stroke thickness in pixels")
	flag.StringVar(&opts.title, "title", "Build-up Curve Graph", "title line printed above the chart")
	flag.StringVar(&opts.imagePath, "image", "", "print this image file instead of a chart")
	flag.StringVar(&opts.preview, "preview", "", "write the raster to a PNG file instead of printing")
	flag.BoolVar(&opts.cut, "cut", true, "cut the paper after the job")
	flag.BoolVar(&opts.listPorts, "list-ports", false, "list candidate serial ports and exit")
	flag.BoolVar(&opts.loopback, "loopback", false, "run a serial echo test and exit")
	flag.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	flag.Parse()
	return opts
}

func main() {
	opts := parseOptions()
	if opts.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	fmt.Println("Hello, Barograph!")

	if opts.listPorts {
		if err := listPorts(); err != nil {
			slog.Error("Couldn't list serial ports", "err", err)
			os.Exit(1)
		}
		return
	}

	if opts.preview != "" {
		if err := writePreview(opts); err != nil {
			slog.Error("Couldn't write preview", "err", err)
			os.Exit(1)
		}
		return
	}

	transport, err := openTransport(opts)
	if err != nil {
		slog.Error("Couldn't connect to printer", "err", err)
		os.Exit(1)
	}
	defer transport.Close()

	if opts.loopback {
		if err := printer.Loopback(transport, []byte("barograph loopback\n"), time.Second); err != nil {
			slog.Error("Loopback test failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := printJob(transport, opts); err != nil {
		slog.Error("Couldn't print", "err", err)
		os.Exit(1)
	}
	fmt.Println("Printing completed.")
}

func openTransport(opts options) (printer.Transport, error) {
	if opts.bluetooth != "" {
		fmt.Printf("Scanning for %s...\n", opts.bluetooth)
		return printer.OpenBluetooth(opts.bluetooth, 3*time.Second)
	}
	cfg := printer.DefaultSerialConfig()
	cfg.BaudRate = opts.baud
	return printer.OpenSerial(opts.port, cfg)
}

func listPorts() error {
	ports, err := printer.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Printf("%-20s %s\n", p.Device, p.Description)
	}
	return nil
}

// buildCanvas produces the raster to print: either a decoded image file or
// a freshly composed chart.
func buildCanvas(opts options) (*canvas.Canvas, error) {
	if opts.imagePath != "" {
		return loadImageCanvas(opts.imagePath)
	}
	return buildChartCanvas(opts)
}

func buildChartCanvas(opts options) (*canvas.Canvas, error) {
	cfg := chart.DefaultConfig()
	c, err := canvas.New(cfg.Width, cfg.CanvasHeight(), bitfont.Basic)
	if err != nil {
		return nil, fmt.Errorf("Couldn't create canvas: %w", err)
	}

	composer := chart.New(c, cfg)
	if opts.seed != 0 {
		composer = chart.NewSeeded(c, cfg, uint32(opts.seed))
	}
	if err := composer.Render(opts.points, opts.pattern, opts.thickness); err != nil {
		return nil, err
	}
	return c, nil
}

func loadImageCanvas(path string) (*canvas.Canvas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("Couldn't decode %s: %w", path, err)
	}
	return canvas.FromImage(img, chart.DefaultConfig().Width)
}

func writePreview(opts options) error {
	c, err := buildCanvas(opts)
	if err != nil {
		return err
	}

	f, err := os.Create(opts.preview)
	if err != nil {
		return fmt.Errorf("Couldn't create %s: %w", opts.preview, err)
	}
	defer f.Close()

	if err := png.Encode(f, c.Image()); err != nil {
		return fmt.Errorf("Couldn't encode preview: %w", err)
	}
	fmt.Printf("Preview written to %s\n", opts.preview)
	return nil
}

// printJob runs the full job: configure the printer, send the title, the
// raster, and the trailing caption, then feed clear of the tear bar.
func printJob(transport printer.Transport, opts options) error {
	c, err := buildCanvas(opts)
	if err != nil {
		return err
	}
	fmt.Printf("Raster ready: %dx%d pixels\n", c.Width(), c.Height())

	enc := escpos.New(transport, escpos.DefaultConfig())
	if err := enc.Init(); err != nil {
		return err
	}
	if err := enc.SetDensity(10, 2); err != nil {
		return err
	}
	if err := enc.SetLineHeight(24); err != nil {
		return err
	}

	if err := enc.SetJustify(escpos.Centre); err != nil {
		return err
	}
	if err := enc.SetFontSize(2, 2); err != nil {
		return err
	}
	if err := enc.Println(opts.title); err != nil {
		return err
	}
	if err := enc.Feed(8); err != nil {
		return err
	}
	if err := enc.SetFontSize(1, 1); err != nil {
		return err
	}
	if err := enc.Println(""); err != nil {
		return err
	}

	fmt.Println("Printing raster...")
	if err := enc.PrintBitmap(c.Width(), c.Height(), c.Data()); err != nil {
		return err
	}

	if err := enc.Feed(2); err != nil {
		return err
	}
	if err := enc.SetFontSize(2, 2); err != nil {
		return err
	}
	if err := enc.SetJustify(escpos.Centre); err != nil {
		return err
	}
	if err := enc.Println("PRESSURE"); err != nil {
		return err
	}
	if err := enc.Feed(3); err != nil {
		return err
	}
	if opts.cut {
		return enc.Cut()
	}
	return nil
}
