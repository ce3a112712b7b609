package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/noise"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Gaussian passes used by the blurred mask filters and noise source.
const (
	filterRounds = 3
	filterRadius = 5
)

// Border is the number of pixels to add on each side when expanding.
type Border struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

func (b Border) validate() error {
	if b.Left < 0 || b.Right < 0 || b.Top < 0 || b.Bottom < 0 {
		return fmt.Errorf("border values must not be negative: %+v", b)
	}
	return nil
}

// MaskFilter shapes the expanded mask before it is used for compositing.
type MaskFilter string

const (
	// MaskFilterNone pastes the mask onto a fill-colored canvas. The
	// gaussian filters always start from a white canvas.
	MaskFilterNone MaskFilter = "none"
	// MaskFilterGaussianMultiply repeatedly blurs and multiplies, which
	// shrinks and softens the white area.
	MaskFilterGaussianMultiply MaskFilter = "gaussian-multiply"
	// MaskFilterGaussianScreen repeatedly blurs and screens, which grows
	// and softens the white area.
	MaskFilterGaussianScreen MaskFilter = "gaussian-screen"
)

// NoiseSource fills the expanded area with starting content.
type NoiseSource string

const (
	// NoiseFillEdge pastes the source onto a fill-colored canvas.
	NoiseFillEdge NoiseSource = "fill-edge"
	// NoiseFillMask is the fill color alone.
	NoiseFillMask NoiseSource = "fill-mask"
	// NoiseUniform is uniform random RGB noise.
	NoiseUniform NoiseSource = "uniform"
	// NoiseNormal is normally distributed RGB noise around mid gray.
	NoiseNormal NoiseSource = "normal"
	// NoiseGaussian is uniform noise with the source pasted in, then blurred.
	NoiseGaussian NoiseSource = "gaussian"
	// NoiseHistogram samples each channel independently from the source's
	// own histogram for that channel.
	NoiseHistogram NoiseSource = "histogram"
)

// Expansion holds the three images produced by Expand, all the same size.
type Expansion struct {
	Source image.Image
	Mask   image.Image
	Noise  image.Image
}

// Expand grows a source image and its mask by border for outpainting.
//
// The source is pasted onto a fill-colored canvas, the mask is pasted onto
// its own canvas and filtered, and the noise image is multiplied by the
// mask. The noise then replaces the source wherever the mask is white,
// mixing in proportionally over gray.
//
// Parameters:
//   - source: The image being expanded.
//   - mask: The mask for source, aligned at its top-left corner.
//   - border: Pixels to add on each side.
//   - noiseSource: Initial content for the masked area. Empty means
//     NoiseHistogram.
//   - filter: Mask filter. Empty means MaskFilterNone.
//   - fill: Canvas color for the added area. Nil means white.
func Expand(source, mask image.Image, border Border, noiseSource NoiseSource, filter MaskFilter, fill color.Color) (*Expansion, error) {
	if err := border.validate(); err != nil {
		return nil, err
	}
	if fill == nil {
		fill = color.White
	}
	if filter == "" {
		filter = MaskFilterNone
	}
	if noiseSource == "" {
		noiseSource = NoiseHistogram
	}

	sb := source.Bounds()
	width := border.Left + sb.Dx() + border.Right
	height := border.Top + sb.Dy() + border.Bottom
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("expanded image would be empty")
	}
	origin := image.Pt(border.Left, border.Top)

	fullSource := imaging.Paste(imaging.New(width, height, fill), source, origin)

	fullMask, err := filterMask(mask, width, height, origin, fill, filter)
	if err != nil {
		return nil, err
	}
	fullNoise, err := generateNoise(source, width, height, origin, fill, noiseSource)
	if err != nil {
		return nil, err
	}
	noisy := blend.Multiply(fullNoise, fullMask)

	composite, err := BlendMask(fullSource, noisy, fullMask)
	if err != nil {
		return nil, err
	}

	return &Expansion{Source: composite, Mask: fullMask, Noise: noisy}, nil
}

func filterMask(mask image.Image, width, height int, origin image.Point, fill color.Color, filter MaskFilter) (image.Image, error) {
	var combine func(bg, fg image.Image) *image.RGBA
	switch filter {
	case MaskFilterNone:
		return imaging.Paste(imaging.New(width, height, fill), mask, origin), nil
	case MaskFilterGaussianMultiply:
		combine = blend.Multiply
	case MaskFilterGaussianScreen:
		combine = blend.Screen
	default:
		return nil, fmt.Errorf("unknown mask filter: %s", filter)
	}

	var out image.Image = imaging.Paste(imaging.New(width, height, color.White), mask, origin)
	for i := 0; i < filterRounds; i++ {
		out = combine(out, blur.Gaussian(out, filterRadius))
	}
	return out, nil
}

func generateNoise(source image.Image, width, height int, origin image.Point, fill color.Color, src NoiseSource) (image.Image, error) {
	switch src {
	case NoiseFillEdge:
		return imaging.Paste(imaging.New(width, height, fill), source, origin), nil
	case NoiseFillMask:
		return imaging.New(width, height, fill), nil
	case NoiseUniform:
		return noise.Generate(width, height, &noise.Options{NoiseFn: noise.Uniform}), nil
	case NoiseNormal:
		return noise.Generate(width, height, &noise.Options{NoiseFn: noise.Gaussian}), nil
	case NoiseGaussian:
		var out image.Image = imaging.Paste(noise.Generate(width, height, &noise.Options{NoiseFn: noise.Uniform}), source, origin)
		for i := 0; i < filterRounds; i++ {
			out = blur.Gaussian(out, filterRadius)
		}
		return out, nil
	case NoiseHistogram:
		return histogramNoise(source, width, height)
	default:
		return nil, fmt.Errorf("unknown noise source: %s", src)
	}
}

// histogramNoise draws every channel of every pixel from the matching
// 256-bin histogram of source, so only levels present in source appear.
func histogramNoise(source image.Image, width, height int) (image.Image, error) {
	sb := source.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("histogram noise needs a non-empty source")
	}

	// cdf[c][v] counts the pixels whose channel c is at most v.
	var cdf [3][256]int
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			r, g, b, _ := nrgba8(source, x, y)
			cdf[0][r]++
			cdf[1][g]++
			cdf[2][b]++
		}
	}
	for c := range cdf {
		for v := 1; v < 256; v++ {
			cdf[c][v] += cdf[c][v-1]
		}
	}
	total := sb.Dx() * sb.Dy()

	sample := func(c int) uint8 {
		n := rand.Intn(total)
		return uint8(sort.Search(256, func(v int) bool { return cdf[c][v] > n }))
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.SetNRGBA(x, y, color.NRGBA{R: sample(0), G: sample(1), B: sample(2), A: 255})
		}
	}
	return out, nil
}

// ParseFill turns "white", "black", "gray" or a "#RRGGBB" string into a
// color. Empty means white.
func ParseFill(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white":
		return color.White, nil
	case "black":
		return color.Black, nil
	case "gray", "grey":
		return color.Gray{Y: 128}, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid fill color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
