package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration whenever the config file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filename string
	onChange func(*SecretsConfig)
	onError  func(error)
}

// NewWatcher starts watching the directory of FilePath. The directory is
// watched rather than the file so that editors replacing the file are seen.
// onChange receives every configuration that loads and validates; onError
// receives the failures, which leave the current configuration in place.
func NewWatcher(onChange func(*SecretsConfig), onError func(error)) (*Watcher, error) {
	filename := filepath.Clean(FilePath())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(filename), err)
	}

	return &Watcher{
		watcher:  watcher,
		filename: filename,
		onChange: onChange,
		onError:  onError,
	}, nil
}

// Run handles file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Reload()
			if err != nil {
				w.onError(err)
				continue
			}
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(fmt.Errorf("watcher error: %w", err))
		case <-ctx.Done():
			return nil
		}
	}
}
