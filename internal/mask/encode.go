package mask

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// MimeType is the media type of every serialized mask.
const MimeType = "image/png"

// Blob is one serialized copy of the mask buffer.
type Blob struct {
	// Data is the PNG encoding of the buffer.
	Data []byte

	// MimeType is always "image/png".
	MimeType string

	// Width and Height are the buffer dimensions at save time.
	Width  int
	Height int

	// Seq counts successful saves for this editor, starting at 1.
	Seq int
}

// Sink receives each serialized mask. It is called without the editor lock
// held and may call back into the editor.
type Sink func(Blob)

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return buf.Bytes(), nil
}
