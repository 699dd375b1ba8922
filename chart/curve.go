package chart

import (
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrUnknownPattern reports a curve pattern outside the supported set.
	ErrUnknownPattern = errors.New("unknown curve pattern")
	// ErrNegativePoints reports a negative sample count requested from
	// the generator.
	ErrNegativePoints = errors.New("negative point count")
	// ErrEmptyData reports an empty dataset passed to DrawCurve.
	ErrEmptyData = errors.New("empty curve dataset")
)

// lcg is the chart's own linear congruential random source. It is
// deliberately primitive and self-contained so a given seed always yields
// the same printed curve.
type lcg struct {
	state uint32
}

func (r *lcg) next() uint32 {
	r.state = (1103515245*r.state + 12345) & 0x7FFFFFFF
	return r.state
}

// float maps the next state to [lo, hi).
func (r *lcg) float(lo, hi float64) float64 {
	return lo + float64(r.next())/0x7FFFFFFF*(hi-lo)
}

func clockSeed() uint32 {
	return uint32(time.Now().UnixMicro())
}

// Curve patterns accepted by GenerateBuildUpCurve.
const (
	PatternQuadratic = 1 // smooth accelerating rise
	PatternLinear    = 2 // steady rise with heavier noise
)

// GenerateBuildUpCurve synthesizes a pressure curve: a rise over the
// first 26/30ths of the samples followed by an abrupt release to zero.
// Pattern 1 rises quadratically with light noise, pattern 2 linearly with
// heavier noise; every sample is clamped to [0, YMax]. An unknown
// pattern or a negative sample count is an error.
func (g *Composer) GenerateBuildUpCurve(numPoints, pattern int) ([]float64, error) {
	if pattern != PatternQuadratic && pattern != PatternLinear {
		return nil, ErrUnknownPattern
	}
	if numPoints < 0 {
		return nil, ErrNegativePoints
	}

	data := make([]float64, numPoints)
	risePoints := numPoints * 26 / 30
	yMax := float64(g.cfg.YMax)

	for i := 0; i < risePoints; i++ {
		progress := float64(i) / float64(risePoints)
		var base, noise float64
		if pattern == PatternQuadratic {
			base = yMax * progress * progress
			noise = g.rng.float(-3, 3)
		} else {
			base = yMax * progress
			noise = g.rng.float(-8, 8)
		}
		data[i] = clamp(base+noise, 0, yMax)
	}
	// The rest stays zero: the release event.

	slog.Debug("Generated curve data", "points", numPoints, "pattern", pattern)
	return data, nil
}

// MovingAverage smooths data in place with a centered window. At the
// edges the window truncates to the samples that exist, so boundary
// averages use fewer terms instead of wrapping or padding. Windows
// smaller than 2 leave the data untouched.
func MovingAverage(data []float64, window int) {
	if window < 2 || len(data) == 0 {
		return
	}

	half := window / 2
	smoothed := make([]float64, len(data))
	for i := range data {
		sum := 0.0
		count := 0
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < len(data) {
				sum += data[j]
				count++
			}
		}
		smoothed[i] = sum / float64(count)
	}
	copy(data, smoothed)
}

// downsampleMax reduces data to exactly buckets samples by max-pooling
// contiguous ranges. Taking the maximum rather than the mean keeps short
// pressure spikes visible after downsampling.
func downsampleMax(data []float64, buckets int) []float64 {
	ratio := float64(len(data)) / float64(buckets)
	pooled := make([]float64, buckets)
	for i := range pooled {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		maxVal := 0.0
		for j := start; j < end && j < len(data); j++ {
			if data[j] > maxVal {
				maxVal = data[j]
			}
		}
		pooled[i] = maxVal
	}
	return pooled
}

// DrawCurve processes raw samples down to one value per plot row and
// paints the connected curve. The pipeline downsamples by max-pooling
// when there are more samples than rows (zero-padding when there are
// fewer), smooths with the configured window, then maps values to
// horizontal offsets at scale graphWidth/YMax. Nothing is drawn before a
// second point exists.
func (g *Composer) DrawCurve(raw []float64, thickness int) error {
	if len(raw) == 0 {
		return ErrEmptyData
	}
	if !g.canvas.Valid() {
		return errors.New("Can't draw onto an invalid canvas")
	}

	graphHeight := g.cfg.PlotHeight
	if graphHeight <= 0 {
		return nil
	}
	var processed []float64
	if len(raw) > graphHeight {
		processed = downsampleMax(raw, graphHeight)
	} else {
		processed = make([]float64, graphHeight)
		copy(processed, raw)
	}
	MovingAverage(processed, g.cfg.SmoothWindow)

	scale := float64(g.graphWidth) / float64(g.cfg.YMax)
	prevX, prevY := 0, 0
	first := true
	for y := 0; y < graphHeight; y++ {
		val := clamp(processed[y], 0, float64(g.cfg.YMax))
		x := g.graphStartX + int(val*scale)
		yPos := g.graphStartY + y

		if !first {
			g.canvas.DrawLine(prevX, prevY, x, yPos, thickness)
		}
		prevX, prevY = x, yPos
		first = false
	}

	slog.Debug("Drew curve", "samples", len(raw), "rows", graphHeight)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
