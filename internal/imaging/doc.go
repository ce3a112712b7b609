// Package imaging provides the image operations the MCP server runs around
// the mask: color sampling, coverage measurement, thumbnails, mask previews,
// mask blending and outpainting expansion.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Masks
//
// A mask is read as a weight: white selects the area to regenerate, black
// keeps the original, and gray mixes the two. Mask pixels are flattened over
// black before weighting, so transparent mask areas select nothing.
//
// # Color Representation
//
// Colors are returned in multiple formats for flexibility:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB: 8-bit components (0-255)
//   - RGBA: 8-bit non-premultiplied components with alpha (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//   - Luminance: unweighted channel average (0-255)
//
// # Thread Safety
//
// Every function is stateless and can be called concurrently. Callers must
// not mutate an image while it is being read.
package imaging
