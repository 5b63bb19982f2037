// Package watcher reports settled changes to catalog source files and
// turns bursts of them into debounced rebuilds.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors catalog files with fsnotify.
//
// Watching a file watches its parent directory so that editors and exports
// that replace the file through a rename are still seen. Watching a
// directory reports every non-ignored file directly inside it.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	files   map[string]struct{}     // individually watched files
	dirs    map[string]struct{}     // directories whose every file is watched
	known   map[string]struct{}     // files seen to exist, to tell added from modified
	pending map[string]*pendingFile // files still settling

	events    chan Event
	errors    chan error
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// pendingFile tracks a file that may still be changing
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fw,
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		known:   make(map[string]struct{}),
		pending: make(map[string]*pendingFile),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a file or directory to be monitored. A file need not exist
// yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return w.watchDir(path)
	case err == nil || errors.Is(err, fs.ErrNotExist):
		return w.watchFile(path, err == nil)
	default:
		return fmt.Errorf("failed to stat path: %w", err)
	}
}

func (w *Watcher) watchDir(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs[dir] = struct{}{}
	for _, e := range entries {
		if !e.IsDir() && w.opts.acceptsInDir(e.Name()) {
			w.known[filepath.Join(dir, e.Name())] = struct{}{}
		}
	}
	w.logger.Debug("added watch", "path", dir)
	return nil
}

func (w *Watcher) watchFile(path string, exists bool) error {
	dir := filepath.Dir(path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = struct{}{}
	if exists {
		w.known[path] = struct{}{}
	}
	w.logger.Debug("added watch", "path", path)
	return nil
}

// interested reports whether changes to path should be reported.
func (w *Watcher) interested(path string) bool {
	if isScratch(path) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	if _, ok := w.dirs[filepath.Dir(path)]; !ok {
		return false
	}
	return w.opts.acceptsInDir(path)
}

// Start begins processing events. It blocks until ctx is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.processEvents(ctx)
	})

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

// handle routes a raw fsnotify event.
func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.interested(path) {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// A rename onto the path arrives as Create; a rename away leaves nothing.
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			w.remove(path)
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
		w.startSettling(path)
	}
}

func (w *Watcher) remove(path string) {
	w.mu.Lock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
	_, existed := w.known[path]
	delete(w.known, path)
	w.mu.Unlock()

	if existed {
		w.emit(Event{Type: EventRemoved, Path: path})
	}
}

// startSettling begins or restarts the settling process for a file.
func (w *Watcher) startSettling(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
	w.pending[path] = p
}

// checkSettled emits the event once a file's size and mtime stop changing.
func (w *Watcher) checkSettled(path string) {
	info, statErr := os.Stat(path)

	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}

	if statErr != nil {
		delete(w.pending, path)
		_, existed := w.known[path]
		delete(w.known, path)
		w.mu.Unlock()
		if existed {
			w.emit(Event{Type: EventRemoved, Path: path})
		}
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	typ := EventAdded
	if _, existed := w.known[path]; existed {
		typ = EventModified
	}
	w.known[path] = struct{}{}
	w.mu.Unlock()

	w.emit(Event{Type: typ, Path: path, Size: info.Size(), ModTime: info.ModTime()})
}

// emit sends an event unless the watcher is stopping.
func (w *Watcher) emit(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel of settled file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. It is safe to call more
// than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
