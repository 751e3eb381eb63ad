package loader

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/freefall-go/common"
	"github.com/fsnotify/fsnotify"
)

// debounceInterval suppresses the duplicate write events most editors emit
// when saving a file.
const debounceInterval = 100 * time.Millisecond

// graphWatcher re-parses watched graph definition files when they change on
// disk, replacing the owning loader's cache entries so new Builds pick up the
// edited definition without a restart.
type graphWatcher struct {
	loader  *loader
	watcher *fsnotify.Watcher
	closeCh chan struct{}
	once    sync.Once

	mu      sync.Mutex
	entries map[string]watchEntry
}

// watchEntry ties an absolute watched path back to the cache key it was
// registered under, which may be a relative path.
type watchEntry struct {
	cacheKey string
	onChange func(*GraphSpec)
}

func newGraphWatcher(l *loader) (*graphWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &graphWatcher{
		loader:  l,
		watcher: fw,
		closeCh: make(chan struct{}),
		entries: make(map[string]watchEntry),
	}
	go w.run()
	return w, nil
}

// add registers a file with the watcher. The parent directory is watched
// rather than the file itself so editors that replace files on save (rename
// over the original) keep triggering events.
func (w *graphWatcher) add(path string, onChange func(*GraphSpec)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	w.mu.Lock()
	w.entries[abs] = watchEntry{cacheKey: path, onChange: onChange}
	w.mu.Unlock()
	return nil
}

func (w *graphWatcher) close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *graphWatcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			w.mu.Lock()
			entry, watched := w.entries[abs]
			w.mu.Unlock()
			if !watched {
				continue
			}

			now := time.Now()
			if t, ok := last[abs]; ok && now.Sub(t) < debounceInterval {
				continue
			}
			last[abs] = now

			w.reload(abs, entry)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("graph watcher error", "error", err)
		case <-w.closeCh:
			return
		}
	}
}

// reload re-parses one watched definition. A failed parse keeps the last
// good cache entry so a half-saved file never breaks running animators.
func (w *graphWatcher) reload(path string, entry watchEntry) {
	spec, err := w.loader.backend.Load(path)
	if err != nil {
		common.Logger().Warn("graph hot-reload failed",
			"path", path,
			"error", err,
		)
		return
	}

	w.loader.replaceGraph(entry.cacheKey, spec)
	common.Logger().Info("graph definition reloaded", "path", path, "graph", spec.Name)

	if entry.onChange != nil {
		entry.onChange(spec)
	}
}

func (l *loader) Watch(path string, onChange func(*GraphSpec)) error {
	l.mu.Lock()
	if l.watcher == nil {
		w, err := newGraphWatcher(l)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		l.watcher = w
	}
	w := l.watcher
	l.mu.Unlock()

	return w.add(path, onChange)
}

func (l *loader) Close() error {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.close()
}
