package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  file_key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("QUICK_TRANSLATE_SETTINGS", filepath.Join(dir, "s.json"))
	t.Setenv("OPENROUTER_API_KEY", "env_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HTTP_TIMEOUT_SEC", "0")

	cfg, err := LoadEnvWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("Failed to load environment: %v", err)
	}

	if cfg.APIKey != "file_key" {
		t.Errorf("Expected APIKey from key file, got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true")
	}
	if cfg.HTTPTimeoutSec != 10 {
		t.Errorf("Expected non-positive timeout to fall back to 10, got %d", cfg.HTTPTimeoutSec)
	}
	if cfg.FavoritesPath != filepath.Join(dir, DefaultFavoritesDB) {
		t.Errorf("Expected favorites next to settings, got '%s'", cfg.FavoritesPath)
	}
}

func TestLoadEnvKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env_key")
	cfg, err := LoadEnvWithOptions(LoadOptions{
		APIKeyPathOverride:   filepath.Join(t.TempDir(), "missing"),
		SettingsPathOverride: "override.json",
	})
	if err != nil {
		t.Fatalf("Failed to load environment: %v", err)
	}
	if cfg.APIKey != "env_key" {
		t.Errorf("Expected APIKey 'env_key', got '%s'", cfg.APIKey)
	}
	if cfg.SettingsPath != "override.json" {
		t.Errorf("Expected settings override, got '%s'", cfg.SettingsPath)
	}
}
