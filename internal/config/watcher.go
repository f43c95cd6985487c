package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called with the freshly loaded config after the file
// changes on disk.
type ReloadCallback func(cfg *Config)

// Watcher hot-reloads the config file. It watches the containing directory
// because most editors replace the file on save rather than writing in
// place, which would drop a watch on the file itself.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback ReloadCallback
	debounce time.Duration

	timer  *time.Timer
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the given config file
func NewWatcher(path string, callback ReloadCallback) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		callback: callback,
		debounce: 500 * time.Millisecond,
	}, nil
}

// SetDebounce sets the debounce duration for batching rapid saves
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching for config changes
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config: watch error: %v", err)
			}
		}
	}()
}

// Stop stops watching for config changes
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("config: reload of %s failed: %v", w.path, err)
		return
	}
	if w.callback != nil {
		w.callback(cfg)
	}
}
