package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings file when it is edited outside the process and
// calls onChange after a reload that altered the merged tree. Writes made by
// Set and Reset produce no callback. Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("settings watcher: watch %s: %w", dir, err)
	}
	name := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if s.reload() && onChange != nil {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("settings watcher: %v", err)
		}
	}
}

// reload re-reads the file and swaps it in when it differs from memory.
// A file that does not parse (for example mid-write) is skipped.
func (s *Store) reload() bool {
	persisted, err := readTree(s.path)
	if err != nil {
		log.Printf("settings: reload skipped: %v", err)
		return false
	}
	merged := mergeNested(Defaults(), persisted)

	s.mu.Lock()
	defer s.mu.Unlock()
	if reflect.DeepEqual(normalize(s.data), normalize(merged)) {
		return false
	}
	s.data = merged
	return true
}

// normalize passes a tree through JSON so ints and float64s compare equal.
func normalize(tree map[string]any) any {
	raw, err := json.Marshal(tree)
	if err != nil {
		return tree
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return tree
	}
	return out
}
