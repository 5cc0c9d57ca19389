package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads path whenever it changes and hands the parsed result to
// onChange. The parent directory is watched rather than the file itself so
// editor-style replace-by-rename still fires. Events for a file that has
// become unreadable or insecure are dropped silently; the last good
// configuration stays in effect.
//
// Returns a stop function that ends the watch and releases the watcher.
func Watch(path string, onChange func(Config)) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	base := filepath.Base(path)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if !isSecureConfigPath(path) {
					continue
				}
				cfg, err := ReadConfigFile(path)
				if err != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}, nil
}
