package shader

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/richinsley/goblackhole/graphics"
)

// Watcher reports edits to shader source files so the render thread can call
// Program.Recompile. It never touches GL itself.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	changed chan string
	done    chan struct{}
}

// NewWatcher watches the directories holding paths and reports writes to the
// files themselves. Directories are watched because editors often replace a
// file rather than write it in place.
func NewWatcher(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher: fw,
		files:   make(map[string]struct{}),
		changed: make(chan string, 16),
		done:    make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[name]; !ok {
				continue
			}
			select {
			case w.changed <- name:
			default:
				// a reload is already queued
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			graphics.Logger().Warn("shader watcher error", "err", err)
		}
	}
}

// Changed delivers the absolute path of each edited file.
func (w *Watcher) Changed() <-chan string { return w.changed }

// Pending drains the queued changes without blocking.
func (w *Watcher) Pending() []string {
	seen := make(map[string]struct{})
	var out []string
	for {
		select {
		case name := <-w.changed:
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		default:
			return out
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
