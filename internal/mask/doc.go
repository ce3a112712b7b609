// Package mask implements the raster mask editor behind the MCP tools.
//
// An Editor owns a single pixel buffer that callers paint with a circular
// brush or remap wholesale with a flood transform. Every mutation marks the
// editor Dirty and arms a persistence scheduler, which encodes the buffer as
// PNG at most once per configured interval and hands the result to a Sink.
//
// # Edit States
//
// The editor cycles through three states for its whole lifetime:
//   - Clean: nothing to save. Save requests are skipped.
//   - Painting: a drag stroke is in progress and points are being queued.
//   - Dirty: the buffer has changes that have not been serialized yet.
//
// Only a successful save moves the editor from Dirty back to Clean. A failed
// save leaves it Dirty so the next edit can retry.
//
// # Pixel Model
//
// The buffer is a non-premultiplied RGBA raster (image.NRGBA). Brush and
// flood operations write only the R, G and B channels with a single gray
// value; alpha is left untouched. A source image drawn with DrawSource
// replaces the samples under its footprint, alpha included.
//
// # Coordinates
//
// Points are float64 pixel coordinates with (0,0) at the top-left corner.
// Pixel (x,y) is considered covered by a brush circle when its center
// (x+0.5, y+0.5) lies within the brush radius.
//
// # Thread Safety
//
// Editor methods are safe for concurrent use. All buffer and state access is
// serialized by one mutex, and each mutation completes together with its
// Dirty transition, so a save never observes a partially written buffer.
package mask
