package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path)

	if got := s.String(SectionTranslation, "default_engine", ""); got != "baidu" {
		t.Errorf("default_engine = %q, want baidu", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected defaults to be written: %v", err)
	}
}

func TestOpenMergesMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	partial := `{"translation": {"default_engine": "google"}, "extra": {"k": 1}}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Open(path)

	if got := s.String(SectionTranslation, "default_engine", ""); got != "google" {
		t.Errorf("persisted value lost: got %q", got)
	}
	if got := s.String(SectionTranslation, "default_target_lang", ""); got != "zh" {
		t.Errorf("default_target_lang = %q, want zh", got)
	}
	if got := s.String(SectionHotkeys, "translate", ""); got != "ctrl+shift+t" {
		t.Errorf("missing section not defaulted: got %q", got)
	}
	if got := s.Int("extra", "k", 0); got != 1 {
		t.Errorf("unknown persisted key dropped: got %d", got)
	}
}

func TestOpenCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"translation": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Open(path)
	if got := s.Int(SectionClipboard, "check_interval_ms", 0); got != 500 {
		t.Errorf("check_interval_ms = %d, want 500", got)
	}
}

func TestGetReturnsCallerDefault(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "settings.json"))
	if got := s.Get("nope", "missing", "fallback"); got != "fallback" {
		t.Errorf("Get = %v, want fallback", got)
	}
	if got := s.Get(SectionUI, "missing", 7); got != 7 {
		t.Errorf("Get = %v, want 7", got)
	}
}

func TestSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path)

	if !s.Set(SectionTranslation, "default_engine", "youdao") {
		t.Fatal("Set returned false")
	}
	if !s.Set("custom", "window", []int{1, 2}) {
		t.Fatal("Set into new section returned false")
	}
	if got := s.Get(SectionTranslation, "default_engine", nil); got != "youdao" {
		t.Errorf("in-process Get = %v", got)
	}

	reloaded := Open(path)
	if got := reloaded.String(SectionTranslation, "default_engine", ""); got != "youdao" {
		t.Errorf("reloaded default_engine = %q", got)
	}
	if got := reloaded.Ints("custom", "window", nil); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("reloaded custom.window = %v", got)
	}
}

func TestSetPersistFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(filepath.Join(blocker, "settings.json"))

	if s.Set(SectionUI, "toolbar_opacity", 0.5) {
		t.Fatal("expected Set to report persistence failure")
	}
	if got := s.Float(SectionUI, "toolbar_opacity", 0); got != 0.5 {
		t.Errorf("memory not updated: got %v", got)
	}
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path)
	s.Set(SectionSearch, "default_search_engine", "bing")

	if !s.Reset() {
		t.Fatal("Reset returned false")
	}
	if got := Open(path).String(SectionSearch, "default_search_engine", ""); got != "baidu" {
		t.Errorf("after reset got %q", got)
	}
}

func TestPersistedFileIsReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path)
	s.Set(SectionTranslation, "default_engine", "谷歌")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var tree map[string]map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("persisted file is not JSON: %v", err)
	}
	for _, section := range []string{SectionTranslation, SectionUI, SectionHotkeys, SectionClipboard, SectionSearch} {
		if _, ok := tree[section]; !ok {
			t.Errorf("section %s missing from file", section)
		}
	}
}

func TestTypedAccessors(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "settings.json"))

	if got := s.Duration(SectionClipboard, "settle_delay_ms", 0); got != 100*time.Millisecond {
		t.Errorf("settle delay = %v", got)
	}
	if got := s.Duration(SectionClipboard, "missing", time.Second); got != time.Second {
		t.Errorf("missing duration = %v", got)
	}
	if got := s.Strings(SectionTranslation, "available_engines", nil); len(got) != 3 {
		t.Errorf("available_engines = %v", got)
	}
	if got := s.StringMap(SectionSearch, "available_search_engines", nil); got["bing"] == "" {
		t.Errorf("available_search_engines = %v", got)
	}
	if got := s.Bool(SectionTranslation, "default_engine", true); !got {
		t.Errorf("type mismatch should return default")
	}
}

func TestReloadIgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path)
	s.Set(SectionUI, "toolbar_position_offset_y", 40)

	if s.reload() {
		t.Error("reload after own write reported a change")
	}

	other := Open(path)
	other.Set(SectionUI, "toolbar_position_offset_y", 60)
	if !s.reload() {
		t.Fatal("reload missed an external change")
	}
	if got := s.Int(SectionUI, "toolbar_position_offset_y", 0); got != 60 {
		t.Errorf("offset after reload = %d", got)
	}
}
