package source

import (
	"fmt"
	"image"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads one source file whenever it is written or replaced.
type Watcher struct {
	path    string
	cache   *Cache
	fn      func(image.Image, error)
	logger  *log.Logger
	watcher *fsnotify.Watcher

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Watch starts watching path. Each change evicts the cached copy, decodes
// the file again and passes the result to fn on the watcher goroutine.
//
// The parent directory is watched rather than the file itself so that
// editors that save by renaming a temporary file are still picked up.
func Watch(cache *Cache, path string, fn func(image.Image, error), logger *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = log.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w := &Watcher{
		path:    abs,
		cache:   cache,
		fn:      fn,
		logger:  logger,
		watcher: fw,
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.cache.Evict(w.path)
			w.fn(w.cache.Load(w.path))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("source watcher error for %s: %v", w.path, err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
