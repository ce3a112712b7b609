package mask

import (
	"image"

	"github.com/disintegration/imaging"
)

// Sample is one pixel of the mask buffer with 8-bit channels.
type Sample struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Luminance returns the unweighted average of the R, G and B channels.
// Alpha is excluded.
func (s Sample) Luminance() float64 {
	return (float64(s.R) + float64(s.G) + float64(s.B)) / 3
}

// Buffer is the pixel raster edited by the brush and flood engines.
//
// The zero value is not usable; create buffers with NewBuffer. Buffer does
// no locking of its own, the owning Editor serializes access.
type Buffer struct {
	img *image.NRGBA
}

// NewBuffer creates a width x height buffer filled with opaque black.
// Negative dimensions are treated as zero.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	b := &Buffer{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
	b.Fill(Sample{A: 255})
	return b
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool { return b.img.Rect.Empty() }

// Contains reports whether (x,y) is inside the buffer.
func (b *Buffer) Contains(x, y int) bool {
	return image.Pt(x, y).In(b.img.Rect)
}

// At returns the sample at (x,y). Out of range coordinates return the zero
// Sample.
func (b *Buffer) At(x, y int) Sample {
	if !b.Contains(x, y) {
		return Sample{}
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	return Sample{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes all four channels of the sample at (x,y).
func (b *Buffer) Set(x, y int, s Sample) {
	if !b.Contains(x, y) {
		return
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = s.R, s.G, s.B, s.A
}

// SetGray writes v to the R, G and B channels at (x,y), leaving alpha alone.
func (b *Buffer) SetGray(x, y int, v uint8) {
	if !b.Contains(x, y) {
		return
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+3 : i+3]
	p[0], p[1], p[2] = v, v, v
}

// Fill sets every pixel to s.
func (b *Buffer) Fill(s Sample) {
	pix := b.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = s.R, s.G, s.B, s.A
	}
}

// DrawImage copies src onto the buffer with its top-left corner at the
// buffer origin. Pixels under the source footprint are replaced, alpha
// included; pixels outside it keep their values.
func (b *Buffer) DrawImage(src image.Image) {
	sb := src.Bounds()
	r := image.Rect(0, 0, sb.Dx(), sb.Dy()).Intersect(b.img.Rect)
	if r.Empty() {
		return
	}

	// Crop converts to non-premultiplied samples without a lossy
	// round trip through premultiplied color.
	part := imaging.Crop(src, r.Add(sb.Min))
	rowBytes := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		i := b.img.PixOffset(0, y)
		j := part.PixOffset(0, y)
		copy(b.img.Pix[i:i+rowBytes], part.Pix[j:j+rowBytes])
	}
}

// Clone returns an independent copy of the buffer contents.
func (b *Buffer) Clone() *image.NRGBA {
	out := image.NewNRGBA(b.img.Rect)
	copy(out.Pix, b.img.Pix)
	return out
}

// Bounds returns the buffer rectangle, always anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle { return b.img.Rect }
