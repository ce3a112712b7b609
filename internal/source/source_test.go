package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writeTestImage writes a solid PNG to path.
func writeTestImage(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

// replaceTestImage writes a new image next to path and renames it into
// place so readers never see a partial file.
func replaceTestImage(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	tmp := path + ".tmp"
	writeTestImage(t, tmp, width, height, c)
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("failed to rename image: %v", err)
	}
}

func TestDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 3))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Bounds().Dx() != 7 || got.Bounds().Dy() != 3 {
		t.Errorf("dimensions: got %v, want 7x3", got.Bounds())
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Decode should fail for invalid data")
	}
}

func TestCache_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, path, 20, 10, color.RGBA{255, 0, 0, 255})

	cache := NewCache()
	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load should return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestCache_ReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, path, 20, 10, color.RGBA{255, 0, 0, 255})

	cache := NewCache()
	if _, err := cache.Load(path); err != nil {
		t.Fatal(err)
	}

	writeTestImage(t, path, 30, 15, color.RGBA{0, 0, 255, 255})
	// Make sure the modification time moves even on coarse clocks.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	img, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("width after change: got %d, want 30", img.Bounds().Dx())
	}
}

func TestCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeTestImage(t, a, 4, 4, color.White)
	writeTestImage(t, b, 4, 4, color.Black)

	cache := NewCache()
	cache.Load(a)
	cache.Load(b)
	if cache.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", cache.Len())
	}

	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
}

func TestCache_LoadMissing(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestCache_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, path, 16, 16, color.White)

	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, path, 12, 8, color.White)

	done := make(chan image.Image, 1)
	LoadAsync(NewCache(), path, func(img image.Image, err error) {
		if err != nil {
			t.Errorf("LoadAsync failed: %v", err)
		}
		done <- img
	})

	select {
	case img := <-done:
		if img == nil || img.Bounds().Dx() != 12 {
			t.Errorf("unexpected image: %v", img)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("LoadAsync never called back")
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		format string
	}{
		{"src.png", "png"},
		{"src.JPG", "jpeg"},
		{"src.webp", "webp"},
		{"src.dat", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeTestImage(t, path, 9, 5, color.White)

			info, err := Describe(path, image.NewNRGBA(image.Rect(0, 0, 9, 5)))
			if err != nil {
				t.Fatalf("Describe failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
			if info.Width != 9 || info.Height != 5 {
				t.Errorf("dimensions: got %dx%d, want 9x5", info.Width, info.Height)
			}
			if !info.HasAlpha {
				t.Error("HasAlpha should be true for NRGBA")
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}
}

func TestWatch_ReloadsOnReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, path, 10, 10, color.RGBA{255, 0, 0, 255})

	got := make(chan image.Image, 16)
	w, err := Watch(NewCache(), path, func(img image.Image, err error) {
		if err == nil {
			got <- img
		}
	}, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	replaceTestImage(t, path, 24, 24, color.RGBA{0, 255, 0, 255})

	deadline := time.After(5 * time.Second)
	for {
		select {
		case img := <-got:
			if img.Bounds().Dx() == 24 {
				return
			}
		case <-deadline:
			t.Fatal("watcher never delivered the replaced image")
		}
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.png")
	writeTestImage(t, path, 10, 10, color.White)

	calls := make(chan struct{}, 16)
	w, err := Watch(NewCache(), path, func(image.Image, error) { calls <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeTestImage(t, filepath.Join(dir, "other.png"), 4, 4, color.Black)
	time.Sleep(200 * time.Millisecond)

	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("callback ran %d times for an unrelated file", len(calls))
	}
	// Closing twice is harmless.
	w.Close()
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := Watch(NewCache(), filepath.Join(t.TempDir(), "nope", "src.png"), func(image.Image, error) {}, nil)
	if err == nil {
		t.Error("Watch should fail when the directory does not exist")
	}
}
