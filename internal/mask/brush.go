package mask

import (
	"fmt"
	"math"
)

// Brush limits and defaults.
const (
	MinBrushColor = 0
	MaxBrushColor = 255
	MinBrushSize  = 4
	MaxBrushSize  = 64

	DefaultBrushColor = 255
	DefaultBrushSize  = 8
)

// Point is a position in buffer pixel coordinates, already translated from
// pointer or client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BrushConfig holds the gray fill value and radius used for every circle.
type BrushConfig struct {
	// Color is the gray level written to R, G and B (0-255).
	Color int `json:"color"`

	// Size is the circle radius in pixels (4-64).
	Size float64 `json:"size"`
}

// DefaultBrush returns a white brush with an 8 pixel radius.
func DefaultBrush() BrushConfig {
	return BrushConfig{Color: DefaultBrushColor, Size: DefaultBrushSize}
}

// Validate checks that color and size are within their allowed ranges.
func (c BrushConfig) Validate() error {
	if c.Color < MinBrushColor || c.Color > MaxBrushColor {
		return fmt.Errorf("%w: color %d outside [%d,%d]", ErrInvalidBrush, c.Color, MinBrushColor, MaxBrushColor)
	}
	if math.IsNaN(c.Size) || c.Size < MinBrushSize || c.Size > MaxBrushSize {
		return fmt.Errorf("%w: size %g outside [%d,%d]", ErrInvalidBrush, c.Size, MinBrushSize, MaxBrushSize)
	}
	return nil
}

// DrawCircle fills the disc of radius cfg.Size centered at p with the brush
// gray. Pixels whose centers fall inside the radius are covered; the rest of
// the buffer, and every alpha value, is left untouched.
func DrawCircle(b *Buffer, p Point, cfg BrushConfig) {
	r := cfg.Size
	if r <= 0 || b.Empty() {
		return
	}
	v := uint8(minInt(maxInt(cfg.Color, MinBrushColor), MaxBrushColor))
	r2 := r * r

	// Rows whose centers can fall inside the disc, clipped to the buffer.
	y0 := maxInt(int(math.Floor(p.Y-r-0.5)), 0)
	y1 := minInt(int(math.Ceil(p.Y+r-0.5)), b.Height()-1)
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - p.Y
		if rem := r2 - dy*dy; rem >= 0 {
			half := math.Sqrt(rem)
			// x+0.5 in [p.X-half, p.X+half]
			x0 := maxInt(int(math.Ceil(p.X-half-0.5)), 0)
			x1 := minInt(int(math.Floor(p.X+half-0.5)), b.Width()-1)
			for x := x0; x <= x1; x++ {
				b.SetGray(x, y, v)
			}
		}
	}
}

// stroke is the queue of points accumulated during a drag.
type stroke struct {
	points []Point
}

func (s *stroke) add(points ...Point) {
	s.points = append(s.points, points...)
}

func (s *stroke) len() int { return len(s.points) }

// take hands the queued points to the caller and replaces the queue with a
// fresh empty one. The returned slice is never touched by the stroke again.
func (s *stroke) take() []Point {
	points := s.points
	s.points = nil
	return points
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
