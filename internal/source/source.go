// Package source loads the images that are drawn underneath a mask.
//
// Sources are decoded with EXIF auto-orientation and cached by path. The
// cache notices when a file changes on disk, and a Watcher can push a fresh
// decode to a callback whenever that happens.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
package source

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Decode reads one image from r, applying any EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

type cacheEntry struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// Cache keeps decoded source images keyed by path.
//
// An entry is reused only while the file's modification time and size are
// unchanged; otherwise Load decodes the file again. Cache is safe for
// concurrent use.
type Cache struct {
	mu     sync.RWMutex
	images map[string]cacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		images: make(map[string]cacheEntry),
	}
}

// Load returns the decoded image at path, from the cache when the file has
// not changed since it was last decoded.
func (c *Cache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.images[path]
	c.mu.RUnlock()
	if ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
		return e.img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = cacheEntry{img: img, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return img, nil
}

// Evict drops the entry for path, if any.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// LoadAsync decodes path on a new goroutine and passes the result to fn.
// fn runs on that goroutine.
func LoadAsync(c *Cache, path string, fn func(image.Image, error)) {
	go func() {
		fn(c.Load(path))
	}()
}

// Info describes a loaded source image.
type Info struct {
	Path string `json:"path"`

	// Width and Height are the image dimensions after orientation.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format comes from the file extension: "png", "jpeg", "gif", "bmp",
	// "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// HasAlpha is true for image types that carry an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Describe builds an Info for an image that was loaded from path.
func Describe(path string, img image.Image) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	case ".webp":
		format = "webp"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := img.Bounds()
	return &Info{
		Path:          path,
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
