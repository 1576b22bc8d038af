package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// overridesFile is the on-disk layout of the voice override file:
//
//	labels:
//	  TTS_MS_DE-DE_HEDDA_11.0: German (Female)
//	  "Microsoft David Desktop": English (US)
type overridesFile struct {
	Labels map[string]string `yaml:"labels"`
}

// LoadOverrides reads a voice override file. A missing file yields no
// overrides and no error.
func LoadOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read voice overrides: %w", err)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse voice overrides %s: %w", path, err)
	}
	out := make(map[string]string, len(f.Labels))
	for k, v := range f.Labels {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// reloadDelay coalesces the bursts of events editors produce on save.
const reloadDelay = 100 * time.Millisecond

// WatchOverrides calls onChange with the new overrides whenever the file
// at path changes, until ctx ends. The parent directory is watched so
// files replaced by rename are picked up. Parse errors are logged and the
// previous overrides stay in effect.
func WatchOverrides(ctx context.Context, path string, onChange func(map[string]string)) error {
	if path == "" {
		return errors.New("no overrides file configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch voice overrides: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close() //nolint:errcheck
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					pending = time.After(reloadDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("voice overrides watcher error", "err", err)
			case <-pending:
				pending = nil
				overrides, err := LoadOverrides(path)
				if err != nil {
					log.Warn("keeping previous voice overrides", "err", err)
					continue
				}
				log.Debug("voice overrides reloaded", "path", path, "count", len(overrides))
				onChange(overrides)
			}
		}
	}()
	return nil
}
