package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// maskWeight returns the blend weight (0-1) for a mask pixel. The mask is
// flattened over black first, so transparent areas weigh nothing, then
// reduced to ITU-R 601-2 luma.
func maskWeight(mask image.Image, x, y int) float64 {
	// Premultiplied channels are exactly the pixel composited over black.
	r, g, b, _ := mask.At(x, y).RGBA()
	l := (299*float64(r) + 587*float64(g) + 114*float64(b)) / 1000
	return l / 0xffff
}

// BlendMask combines two same-sized images through a mask: where the mask
// is white the result shows stage, where it is black it keeps source, and
// gray levels mix the two.
//
// All three images must have the same dimensions.
func BlendMask(source, stage, mask image.Image) (*image.NRGBA, error) {
	sb, tb, mb := source.Bounds(), stage.Bounds(), mask.Bounds()
	if sb.Size() != mb.Size() || tb.Size() != mb.Size() {
		return nil, fmt.Errorf("size mismatch: source %dx%d, stage %dx%d, mask %dx%d",
			sb.Dx(), sb.Dy(), tb.Dx(), tb.Dy(), mb.Dx(), mb.Dy())
	}

	out := image.NewNRGBA(image.Rect(0, 0, mb.Dx(), mb.Dy()))
	for y := 0; y < mb.Dy(); y++ {
		for x := 0; x < mb.Dx(); x++ {
			w := maskWeight(mask, mb.Min.X+x, mb.Min.Y+y)
			sr, sg, sbl, sa := nrgba8(source, sb.Min.X+x, sb.Min.Y+y)
			tr, tg, tbl, ta := nrgba8(stage, tb.Min.X+x, tb.Min.Y+y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: mix(sr, tr, w),
				G: mix(sg, tg, w),
				B: mix(sbl, tbl, w),
				A: mix(sa, ta, w),
			})
		}
	}
	return out, nil
}

func mix(a, b uint8, w float64) uint8 {
	v := float64(a)*(1-w) + float64(b)*w
	return uint8(v + 0.5)
}

// Preview tints the source wherever the mask is painted, so the masked
// area can be checked by eye.
//
// Parameters:
//   - source: The image under the mask.
//   - mask: The mask, aligned at the source's top-left corner. Parts of the
//     source outside the mask are left untinted.
//   - tintHex: Tint color in "#RRGGBB" form. Empty means red.
//   - opacity: Tint strength over fully white mask pixels (0-1).
func Preview(source, mask image.Image, tintHex string, opacity float64) (*ImageResult, error) {
	if tintHex == "" {
		tintHex = "#FF0000"
	}
	tint, err := colorful.Hex(tintHex)
	if err != nil {
		return nil, fmt.Errorf("invalid tint color %q: %w", tintHex, err)
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity %g outside [0,1]", opacity)
	}

	sb, mb := source.Bounds(), mask.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			r, g, b, a := nrgba8(source, sb.Min.X+x, sb.Min.Y+y)
			c := color.NRGBA{R: r, G: g, B: b, A: a}

			mp := image.Pt(mb.Min.X+x, mb.Min.Y+y)
			if mp.In(mb) {
				if w := maskWeight(mask, mp.X, mp.Y) * opacity; w > 0 {
					base := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
					c.R, c.G, c.B = base.BlendRgb(tint, w).Clamped().RGB255()
				}
			}
			out.SetNRGBA(x, y, c)
		}
	}

	return EncodeResult(out)
}
