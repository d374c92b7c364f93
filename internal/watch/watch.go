// Package watch rebuilds the book whenever a file below its root changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
)

// DefaultDebounce collapses bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. Its error is logged and does not stop watching.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers debounced rebuilds on file changes below Root.
type Watcher struct {
	root     string
	exclude  []string
	debounce time.Duration
	rebuild  RebuildFunc
}

// New creates a watcher over root. Directories in exclude, typically the
// output directory, are never watched.
func New(root string, rebuild RebuildFunc, exclude ...string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.PathError("cannot resolve watch root").WithCause(err).WithContext("path", root).Build()
	}
	w := &Watcher{root: abs, debounce: DefaultDebounce, rebuild: rebuild}
	for _, e := range exclude {
		if e == "" {
			continue
		}
		if p, err := filepath.Abs(e); err == nil {
			w.exclude = append(w.exclude, p)
		}
	}
	return w, nil
}

// WithDebounce sets the quiet period before a rebuild starts.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Run builds once and then rebuilds on every change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.FileSystemError("cannot create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fw.Close() }()
	if err := w.addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	rebuildReq, trigger := w.debouncer()
	done := w.startRebuildWorker(ctx, rebuildReq)
	rebuildReq <- struct{}{}
	slog.Info("Watching for changes", logfields.Path(w.root))

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) debouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

// startRebuildWorker serializes rebuilds. A request arriving during a build
// stays queued in the channel and runs afterwards.
func (w *Watcher) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				start := time.Now()
				if err := w.rebuild(ctx); err != nil {
					slog.Warn("Rebuild failed", logfields.Error(err))
					continue
				}
				slog.Info("Rebuild finished", logfields.Since(start))
			}
		}
	}()
	return done
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.excluded(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) excluded(path string) bool {
	for _, e := range w.exclude {
		if pathres.Contains(e, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.FileSystemError("cannot watch directory").WithCause(err).WithContext("path", path).Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.excluded(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent reports events on hidden, swap and backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
