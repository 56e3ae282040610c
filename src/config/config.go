package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath   = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar    = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar       = "QUICK_TRANSLATE_ENV"
	DefaultSettingsFile = "settings.json"
	DefaultFavoritesDB  = "favorites.db"
)

type LoadOptions struct {
	SettingsPathOverride string
	APIKeyPathOverride   string
}

// Env holds process-level configuration that is not part of the persisted
// settings document.
type Env struct {
	SettingsPath      string `env:"QUICK_TRANSLATE_SETTINGS"`
	FavoritesPath     string `env:"QUICK_TRANSLATE_FAVORITES"`
	EnableFileLogging bool   `env:"ENABLE_FILE_LOGGING"`
	APIKey            string `env:"OPENROUTER_API_KEY"`
	APIKeyPath        string `env:"OPENROUTER_API_KEY_FILE"`
	Model             string `env:"MODEL"`
	LLMBaseURL        string `env:"LLM_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	HTTPTimeoutSec    int    `env:"HTTP_TIMEOUT_SEC" envDefault:"10"`
}

func LoadEnv() (*Env, error) {
	return LoadEnvWithOptions(LoadOptions{})
}

// LoadEnvWithOptions reads .env from the executable directory (or the file
// named by QUICK_TRANSLATE_ENV) into the process environment, then parses it.
func LoadEnvWithOptions(opts LoadOptions) (*Env, error) {
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.HTTPTimeoutSec <= 0 {
		cfg.HTTPTimeoutSec = 10
	}

	if override := strings.TrimSpace(opts.SettingsPathOverride); override != "" {
		cfg.SettingsPath = override
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = besideExecutable(DefaultSettingsFile)
	}
	if cfg.FavoritesPath == "" {
		cfg.FavoritesPath = filepath.Join(filepath.Dir(cfg.SettingsPath), DefaultFavoritesDB)
	}

	cfg.APIKeyPath = resolveAPIKeyPath(opts, cfg.APIKeyPath, dotenvValues)
	if key := readKeyFile(cfg.APIKeyPath); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if p := besideExecutable(".env"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func besideExecutable(name string) string {
	execPath, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(execPath), name)
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, fromEnv string, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(fromEnv); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func readKeyFile(keyPath string) string {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
