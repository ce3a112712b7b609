package mask

import (
	"fmt"
	"math"
	"strings"
)

// Gray levels and luminance thresholds used by the flood transforms.
const (
	Black = 0
	White = 255

	// LowerThreshold is the luminance at or below which FloodAbove yields black.
	LowerThreshold = 34
	// UpperThreshold is the luminance at or above which FloodBelow yields white.
	UpperThreshold = 224
)

// FloodFunc maps a pixel luminance in [0,255] to a new gray level.
type FloodFunc func(n float64) float64

// FloodBelow turns everything darker than UpperThreshold black and the rest
// white. A luminance of exactly 224 maps to white.
func FloodBelow(n float64) float64 {
	if n < UpperThreshold {
		return Black
	}
	return White
}

// FloodAbove turns everything brighter than LowerThreshold white and the
// rest black. A luminance of exactly 34 maps to black.
func FloodAbove(n float64) float64 {
	if n > LowerThreshold {
		return White
	}
	return Black
}

// FloodGray returns the luminance unchanged, which desaturates the pixel.
func FloodGray(n float64) float64 {
	return n
}

// FloodMode names one of the three buffer-wide transforms.
type FloodMode string

const (
	FloodModeBelow FloodMode = "below"
	FloodModeAbove FloodMode = "above"
	FloodModeGray  FloodMode = "gray"
)

// Func returns the transform for the mode.
func (m FloodMode) Func() (FloodFunc, error) {
	switch m {
	case FloodModeBelow:
		return FloodBelow, nil
	case FloodModeAbove:
		return FloodAbove, nil
	case FloodModeGray:
		return FloodGray, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlood, string(m))
	}
}

// ParseFloodMode accepts the mode names case-insensitively, along with the
// button labels "gray-to-black", "gray-to-white" and "grayscale".
func ParseFloodMode(s string) (FloodMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "below", "gray-to-black", "black":
		return FloodModeBelow, nil
	case "above", "gray-to-white", "white":
		return FloodModeAbove, nil
	case "gray", "grey", "grayscale":
		return FloodModeGray, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFlood, s)
	}
}

// Flood applies fn to the luminance of every pixel and writes the result to
// R, G and B. Alpha is not modified. A zero-size buffer is left as is.
func Flood(b *Buffer, fn FloodFunc) {
	pix := b.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		n := (float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])) / 3
		v := toChannel(fn(n))
		pix[i], pix[i+1], pix[i+2] = v, v, v
	}
}

// toChannel stores a gray level the way a clamped 8-bit array does:
// rounded half to even and clamped to [0,255].
func toChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
