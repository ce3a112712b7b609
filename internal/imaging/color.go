package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// Alpha is non-premultiplied: 0 is fully transparent, 255 fully opaque.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations, plus the
// unweighted luminance the flood transforms operate on.
type ColorResult struct {
	Hex       string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB       RGBColor  `json:"rgb"`  // RGB components
	RGBA      RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL       HSLColor  `json:"hsl"`  // HSL representation
	Luminance float64   `json:"luminance"`
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The image to sample, typically a mask snapshot.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: Non-nil if coordinates are outside the image bounds.
//
// # Color Conversion
//
// Channels are reported non-premultiplied, the way the mask stores them.
// For 16-bit images, values are scaled down by right-shifting 8 bits.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r8, g8, b8, a8 := nrgba8(img, x, y)

	return &ColorResult{
		Hex:       fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:       RGBColor{R: r8, G: g8, B: b8},
		RGBA:      RGBAColor{R: r8, G: g8, B: b8, A: a8},
		HSL:       rgbToHSL(r8, g8, b8),
		Luminance: luminance(r8, g8, b8),
	}, nil
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int // Left edge X coordinate (inclusive)
	Y1 int // Top edge Y coordinate (inclusive)
	X2 int // Right edge X coordinate (exclusive)
	Y2 int // Bottom edge Y coordinate (exclusive)
}

// Luminance bands used by Coverage. They match the flood thresholds: a pixel
// counts as black when FloodAbove would keep it black, and as white when
// FloodBelow would keep it white.
const (
	blackLuminance = 34
	whiteLuminance = 224
)

// CoverageResult summarizes how much of a mask is painted.
type CoverageResult struct {
	// Pixels is the number of pixels examined.
	Pixels int `json:"pixels"`

	// BlackPercent is the share with luminance at or below 34.
	BlackPercent float64 `json:"black_percent"`

	// WhitePercent is the share with luminance at or above 224.
	WhitePercent float64 `json:"white_percent"`

	// GrayPercent is everything in between.
	GrayPercent float64 `json:"gray_percent"`

	// MeanLuminance is the average luminance over the region (0-255).
	MeanLuminance float64 `json:"mean_luminance"`
}

// Coverage measures the black, white and gray share of an image or region.
//
// Luminance is the unweighted channel average (R+G+B)/3, alpha excluded.
// A nil region covers the whole image. Regions must lie inside the image
// and have positive area.
func Coverage(img image.Image, region *Region) (*CoverageResult, error) {
	bounds := img.Bounds()
	if region != nil {
		r := image.Rect(region.X1, region.Y1, region.X2, region.Y2)
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		if !r.In(bounds) {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds", region.X1, region.Y1, region.X2, region.Y2)
		}
		bounds = r
	}

	var black, white, total int
	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := nrgba8(img, x, y)
			l := luminance(r, g, b)
			switch {
			case l <= blackLuminance:
				black++
			case l >= whiteLuminance:
				white++
			}
			sum += l
			total++
		}
	}

	if total == 0 {
		return &CoverageResult{}, nil
	}

	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }
	return &CoverageResult{
		Pixels:        total,
		BlackPercent:  pct(black),
		WhitePercent:  pct(white),
		GrayPercent:   pct(total - black - white),
		MeanLuminance: sum / float64(total),
	}, nil
}

// nrgba8 reads a pixel as non-premultiplied 8-bit channels.
func nrgba8(img image.Image, x, y int) (r, g, b, a uint8) {
	if n, ok := img.(*image.NRGBA); ok {
		c := n.NRGBAAt(x, y)
		return c.R, c.G, c.B, c.A
	}
	r32, g32, b32, a32 := img.At(x, y).RGBA()
	if a32 == 0 {
		return 0, 0, 0, 0
	}
	// Undo premultiplication.
	r32 = r32 * 0xffff / a32
	g32 = g32 * 0xffff / a32
	b32 = b32 * 0xffff / a32
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8), uint8(a32 >> 8)
}

func luminance(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// rgbToHSL converts 8-bit RGB values to HSL with integer degrees and
// percentages.
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
