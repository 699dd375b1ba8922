// Package chart renders a synthetic pressure-over-time chart onto a
// canvas. Time runs down the image to match the paper feed direction of a
// receipt printer, so the "horizontal" axis of the chart is the canvas
// width and all labels are drawn rotated a quarter turn.
package chart

import (
	"fmt"
	"log/slog"

	"barograph/canvas"
)

// Config describes the chart geometry and axis ranges. All dimensions are
// pixels; axis values are in domain units (seconds and pressure counts).
// Non-positive steps and spacings fall back to the DefaultConfig values.
type Config struct {
	// Width is the canvas width, fixed by the printer head.
	Width int
	// PlotHeight is the vertical pixel extent of the plot area, excluding
	// the label margins.
	PlotHeight int

	LeftMargin   int // space for the time labels
	TopMargin    int // space for the pressure labels
	BottomMargin int // space under the caption

	XMax  int // time axis runs 0..XMax
	XStep int // one time grid line every XStep units
	YMax  int // pressure axis runs 0..YMax
	YStep int // one pressure grid line every YStep units

	// GridXSpacing is the pixel distance between time grid lines,
	// GridYSpacing between pressure grid lines.
	GridXSpacing int
	GridYSpacing int

	Dashed       bool   // dash the grid lines
	SmoothWindow int    // moving-average window applied to the curve
	Caption      string // caption under the plot
}

// DefaultConfig returns the tuned layout for a 512-dot (80mm) printer
// head.
func DefaultConfig() Config {
	return Config{
		Width:        512,
		PlotHeight:   1200,
		LeftMargin:   30,
		TopMargin:    70,
		BottomMargin: 10,
		XMax:         30,
		XStep:        2,
		YMax:         200,
		YStep:        25,
		GridXSpacing: 80,
		GridYSpacing: 60,
		Dashed:       true,
		SmoothWindow: 11,
		Caption:      "TIME",
	}
}

// CanvasHeight returns the canvas height the chart needs: plot area plus
// label margins.
func (cfg Config) CanvasHeight() int {
	return cfg.TopMargin + cfg.PlotHeight + cfg.BottomMargin
}

// sanitized replaces non-positive steps and spacings with their
// defaults. The axis loops and the plot width derivation need positive
// values.
func (cfg Config) sanitized() Config {
	def := DefaultConfig()
	if cfg.XStep <= 0 {
		cfg.XStep = def.XStep
	}
	if cfg.YStep <= 0 {
		cfg.YStep = def.YStep
	}
	if cfg.GridXSpacing <= 0 {
		cfg.GridXSpacing = def.GridXSpacing
	}
	if cfg.GridYSpacing <= 0 {
		cfg.GridYSpacing = def.GridYSpacing
	}
	return cfg
}

// Pixel nudges that optically center the rotated labels against their
// grid lines.
const (
	pressureLabelNudge = 13 // label cell shifts left of its grid line
	pressureLabelY     = 5  // labels sit this far below the top edge
	timeLabelX         = 10 // left inset of the time labels
	timeLabelNudge     = 3  // label cell shifts above its grid line
	captionNudge       = 15 // caption shifts left of the midpoint
	captionGap         = 5  // gap between plot bottom and caption
)

// A Composer owns the data generator and the painting sequence for one
// chart. It is not safe for concurrent use; render one chart at a time.
type Composer struct {
	canvas *canvas.Canvas
	cfg    Config

	graphWidth  int
	graphStartX int
	graphStartY int

	rng lcg
}

// New returns a composer drawing on c, seeding the data generator from
// the clock. Use NewSeeded when the curve must be reproducible.
func New(c *canvas.Canvas, cfg Config) *Composer {
	return NewSeeded(c, cfg, clockSeed())
}

// NewSeeded returns a composer with an explicit generator seed.
func NewSeeded(c *canvas.Canvas, cfg Config, seed uint32) *Composer {
	cfg = cfg.sanitized()
	return &Composer{
		canvas:      c,
		cfg:         cfg,
		graphWidth:  cfg.GridYSpacing * (cfg.YMax / cfg.YStep),
		graphStartX: cfg.LeftMargin,
		graphStartY: cfg.TopMargin,
		rng:         lcg{state: seed},
	}
}

// DrawPressureLabels paints the rotated "<value>K" labels across the top
// margin, one per pressure grid line. The zero label is omitted so the
// origin corner stays clean.
func (g *Composer) DrawPressureLabels() {
	for i := 0; i <= g.cfg.YMax/g.cfg.YStep; i++ {
		value := i * g.cfg.YStep
		if value == 0 {
			continue
		}
		xPos := g.graphStartX + i*g.cfg.GridYSpacing
		label := fmt.Sprintf("%dK", value)
		g.canvas.DrawText(label, xPos-pressureLabelNudge, pressureLabelY, 2, true)
	}
}

// DrawTimeLabels paints the rotated time values down the left margin, one
// per time grid line that falls inside the plot.
func (g *Composer) DrawTimeLabels() {
	bottom := g.graphStartY + g.cfg.PlotHeight
	for i := 0; i <= g.cfg.XMax/g.cfg.XStep; i++ {
		yPos := g.graphStartY + i*g.cfg.GridXSpacing
		if yPos >= bottom-10 {
			continue
		}
		label := fmt.Sprintf("%d", i*g.cfg.XStep)
		g.canvas.DrawText(label, timeLabelX, yPos-timeLabelNudge, 2, true)
	}
}

// DrawGrid paints the time and pressure grid lines over the plot area.
func (g *Composer) DrawGrid() {
	bottom := g.graphStartY + g.cfg.PlotHeight

	for i := 0; i <= g.cfg.XMax/g.cfg.XStep; i++ {
		yPos := g.graphStartY + i*g.cfg.GridXSpacing
		if yPos < bottom {
			g.canvas.DrawHorizontalLine(yPos, g.graphStartX, g.graphStartX+g.graphWidth, g.cfg.Dashed)
		}
	}

	for i := 0; i <= g.cfg.YMax/g.cfg.YStep; i++ {
		xPos := g.graphStartX + i*g.cfg.GridYSpacing
		g.canvas.DrawVerticalLine(xPos, g.graphStartY, bottom, g.cfg.Dashed)
	}
}

// DrawCaption paints the rotated caption under the plot at the horizontal
// midpoint.
func (g *Composer) DrawCaption() {
	y := g.graphStartY + g.cfg.PlotHeight + captionGap
	g.canvas.DrawText(g.cfg.Caption, g.cfg.Width/2-captionNudge, y, 1, true)
}

// Render produces the complete chart in one shot: labels and grid first,
// then a freshly generated curve, then the caption.
func (g *Composer) Render(numPoints, pattern, thickness int) error {
	if !g.canvas.Valid() {
		return fmt.Errorf("Can't render onto an invalid canvas")
	}

	g.DrawPressureLabels()
	g.DrawGrid()
	g.DrawTimeLabels()

	data, err := g.GenerateBuildUpCurve(numPoints, pattern)
	if err != nil {
		return fmt.Errorf("Couldn't generate curve data: %w", err)
	}
	if err := g.DrawCurve(data, thickness); err != nil {
		return fmt.Errorf("Couldn't draw curve: %w", err)
	}

	g.DrawCaption()
	slog.Debug("Rendered chart", "points", numPoints, "pattern", pattern)
	return nil
}
