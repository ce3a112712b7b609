package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageResult contains an encoded image returned by a tool.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeResult encodes img as base64 PNG.
func EncodeResult(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Thumbnail shrinks an image to fit within maxWidth x maxHeight, keeping
// its aspect ratio. Images that already fit are returned at full size; they
// are never enlarged.
func Thumbnail(img image.Image, maxWidth, maxHeight int) (*ImageResult, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", maxWidth, maxHeight)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot thumbnail an empty image")
	}

	return EncodeResult(imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos))
}
