package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads loaded config documents when their override file changes on
// disk. onChange, when not nil, is called after each reload attempt. Watch
// returns once the watcher is running; it stops when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, onChange func(name string, err error)) error {
	source, ok := s.overrides.(*FSSource)
	if !ok || source.Dir() == "" {
		return ErrNotWatchable
	}

	dir := filepath.Join(source.Dir(), KindConfig)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watching %s: %w", dir, err)
	}

	go s.watchLoop(ctx, watcher, onChange)

	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(string, error)) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			name, ok := documentName(event.Name)
			if !ok || !s.Loaded(name) || s.Protected(name) {
				continue
			}

			err := s.Reload(name)
			if err != nil {
				s.logger.Error("config reload failed", "name", name, "error", err)
			} else {
				s.logger.Info("config reloaded", "name", name)
			}
			if onChange != nil {
				onChange(name, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config watcher error", "error", err)
		}
	}
}

func documentName(file string) (string, bool) {
	ext := filepath.Ext(file)
	if !slices.Contains(Extensions, ext) {
		return "", false
	}
	return strings.TrimSuffix(filepath.Base(file), ext), true
}
