package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/tabnine/internal/trigger"
)

// reloadQuiet is the debounce applied to bursts of file events, since
// editors typically write a config file several times per save.
const reloadQuiet = 200 * time.Millisecond

// Watcher reloads the config file on change and hands the result to a
// callback. Reload failures are reported through the error callback and
// the previous configuration stays in effect.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce *trigger.Debouncer
	done     chan struct{}
}

// Watch starts watching path. onReload receives each successfully
// reloaded config; onError (may be nil) receives reload failures.
func Watch(path string, onReload func(*Config), onError func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: rename-over-replace (the
	// common atomic save) drops a watch on the file itself.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path: abs,
		fsw:  fsw,
		done: make(chan struct{}),
	}
	w.debounce = trigger.NewDebouncer(reloadQuiet, func() {
		cfg, err := Load(abs)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onReload(cfg)
	})

	go w.loop()
	return w, nil
}

// loop filters directory events down to the config file.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debounce.Call()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops watching. Call at most once.
func (w *Watcher) Close() error {
	close(w.done)
	w.debounce.Cancel()
	return w.fsw.Close()
}
