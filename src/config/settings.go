package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Section names of the persisted settings document.
const (
	SectionTranslation = "translation"
	SectionUI          = "ui"
	SectionHotkeys     = "hotkeys"
	SectionClipboard   = "clipboard"
	SectionSearch      = "search"
)

// Defaults returns a fresh copy of the built-in settings tree. Every option the
// application reads has an entry here.
func Defaults() map[string]any {
	return map[string]any{
		SectionTranslation: map[string]any{
			"default_engine":       "baidu",
			"available_engines":    []any{"baidu", "google", "youdao"},
			"auto_detect_language": true,
			"default_source_lang":  "auto",
			"default_target_lang":  "zh",
		},
		SectionUI: map[string]any{
			"toolbar_opacity":            0.9,
			"translation_window_opacity": 0.95,
			"show_toolbar_on_selection":  true,
			"toolbar_position_offset_y":  20,
			"translation_window_size":    []any{400, 350},
			"selection_action":           "translate",
			"toolbar_hide_ms":            5000,
		},
		SectionHotkeys: map[string]any{
			"translate":   "ctrl+shift+t",
			"copy":        "ctrl+shift+c",
			"hide":        "esc",
			"system_copy": "ctrl+c",
		},
		SectionClipboard: map[string]any{
			"check_interval_ms":           500,
			"use_clipboard_for_detection": true,
			"settle_delay_ms":             100,
			"min_check_interval_ms":       1000,
			"copy_hold_ms":                300,
			"mouse_release_delay_ms":      100,
		},
		SectionSearch: map[string]any{
			"default_search_engine": "baidu",
			"available_search_engines": map[string]any{
				"baidu":  "https://www.baidu.com/s?wd={query}",
				"google": "https://www.google.com/search?q={query}",
				"bing":   "https://www.bing.com/search?q={query}",
			},
		},
	}
}

// Store is the process-wide settings object. It is created once at startup and
// passed to the components that need it. Every Set rewrites the whole file.
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// Open loads path merged over Defaults. A missing file is created with the
// defaults; an unreadable or corrupt one is logged and ignored.
func Open(path string) *Store {
	s := &Store{path: path}
	s.data = s.load()
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() map[string]any {
	defaults := Defaults()
	persisted, err := readTree(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := writeTree(s.path, defaults); werr != nil {
				log.Printf("settings: failed to write defaults to %s: %v", s.path, werr)
			}
			return defaults
		}
		log.Printf("settings: failed to load %s, using defaults: %v", s.path, err)
		return defaults
	}
	return mergeNested(defaults, persisted)
}

func readTree(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse settings: top level is not an object")
	}
	return tree, nil
}

func encodeTree(tree map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTree(path string, tree map[string]any) error {
	raw, err := encodeTree(tree)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	return os.WriteFile(path, raw, 0o644)
}

// mergeNested overlays src onto dst. Mappings recurse, everything else in src
// replaces the value in dst. Keys only present in dst survive.
func mergeNested(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if vm, ok := v.(map[string]any); ok {
			dm, _ := dst[k].(map[string]any)
			dst[k] = mergeNested(dm, vm)
			continue
		}
		dst[k] = v
	}
	return dst
}

// Get returns the stored value for section/key, or def when absent.
func (s *Store) Get(section, key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.data[section].(map[string]any)
	if !ok {
		return def
	}
	v, ok := sec[key]
	if !ok {
		return def
	}
	return v
}

// Set stores value and persists the full document. The in-memory value is
// updated even when writing fails; the failure is logged and reported as false.
func (s *Store) Set(section, key string, value any) bool {
	s.mu.Lock()
	sec, ok := s.data[section].(map[string]any)
	if !ok {
		sec = map[string]any{}
		s.data[section] = sec
	}
	sec[key] = value
	err := writeTree(s.path, s.data)
	s.mu.Unlock()

	if err != nil {
		log.Printf("settings: failed to save %s.%s: %v", section, key, err)
		return false
	}
	return true
}

// Reset replaces every option with its default and persists the result.
func (s *Store) Reset() bool {
	s.mu.Lock()
	s.data = Defaults()
	err := writeTree(s.path, s.data)
	s.mu.Unlock()

	if err != nil {
		log.Printf("settings: failed to save defaults: %v", err)
		return false
	}
	return true
}

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, _ := deepCopy(s.data).(map[string]any)
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = deepCopy(vv)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, vv := range t {
			l[i] = deepCopy(vv)
		}
		return l
	default:
		return v
	}
}

// String returns a string option, or def when absent or of another type.
func (s *Store) String(section, key, def string) string {
	if v, ok := s.Get(section, key, nil).(string); ok {
		return v
	}
	return def
}

// Bool returns a boolean option.
func (s *Store) Bool(section, key string, def bool) bool {
	if v, ok := s.Get(section, key, nil).(bool); ok {
		return v
	}
	return def
}

// Float returns a numeric option as float64.
func (s *Store) Float(section, key string, def float64) float64 {
	if f, ok := toFloat(s.Get(section, key, nil)); ok {
		return f
	}
	return def
}

// Int returns a numeric option truncated to int.
func (s *Store) Int(section, key string, def int) int {
	if f, ok := toFloat(s.Get(section, key, nil)); ok {
		return int(f)
	}
	return def
}

// Duration reads an integer millisecond option. Non-positive values fall back to def.
func (s *Store) Duration(section, key string, def time.Duration) time.Duration {
	ms := s.Int(section, key, -1)
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Strings returns a list option. Non-string elements are skipped.
func (s *Store) Strings(section, key string, def []string) []string {
	switch t := s.Get(section, key, nil).(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return def
}

// Ints returns a numeric list option.
func (s *Store) Ints(section, key string, def []int) []int {
	switch t := s.Get(section, key, nil).(type) {
	case []int:
		return append([]int(nil), t...)
	case []any:
		out := make([]int, 0, len(t))
		for _, v := range t {
			if f, ok := toFloat(v); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return def
}

// StringMap returns a mapping option whose values are strings.
func (s *Store) StringMap(section, key string, def map[string]string) map[string]string {
	switch t := s.Get(section, key, nil).(type) {
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, v := range t {
			out[k] = v
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, v := range t {
			if str, ok := v.(string); ok {
				out[k] = str
			}
		}
		return out
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
