package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultPath returns ~/.autopost/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".autopost", "config.json"), nil
}

// Load loads config from path, or the default path when empty. A missing file
// yields the defaults with env overrides applied. A .env file in the working
// directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		finish(cfg)
		return cfg, nil
	}
	return cfg, err
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	finish(cfg)
	return cfg, nil
}

func finish(cfg *Config) {
	applyEnvOverrides(cfg)
	if len(cfg.CronPresets) == 0 {
		cfg.CronPresets = append([]CronPreset(nil), DefaultCronPresets...)
	}
	cfg.Storage.ProfilesPath = expandHome(cfg.Storage.ProfilesPath)
	cfg.Storage.UploadDir = expandHome(cfg.Storage.UploadDir)
	cfg.Storage.HistoryDir = expandHome(cfg.Storage.HistoryDir)
}

// applyEnvOverrides applies AUTOPOST_-prefixed environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"AUTOPOST_SERVER_HOST":          &cfg.Server.Host,
		"AUTOPOST_CLIENT_BASEURL":       &cfg.Client.BaseURL,
		"AUTOPOST_STORAGE_PROFILESPATH": &cfg.Storage.ProfilesPath,
		"AUTOPOST_STORAGE_UPLOADDIR":    &cfg.Storage.UploadDir,
		"AUTOPOST_STORAGE_HISTORYDIR":   &cfg.Storage.HistoryDir,
		"AUTOPOST_SUGGEST_PROVIDER":     &cfg.Suggest.Provider,
		"AUTOPOST_SUGGEST_APIKEY":       &cfg.Suggest.APIKey,
		"AUTOPOST_SUGGEST_BASEURL":      &cfg.Suggest.BaseURL,
		"AUTOPOST_SUGGEST_MODEL":        &cfg.Suggest.Model,
		"AUTOPOST_LOGLEVEL":             &cfg.LogLevel,
	}
	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}

	intMap := map[string]*int{
		"AUTOPOST_SERVER_PORT":           &cfg.Server.Port,
		"AUTOPOST_CLIENT_TIMEOUTSECONDS": &cfg.Client.TimeoutSeconds,
		"AUTOPOST_POLL_INTERVALSECONDS":  &cfg.Poll.IntervalSeconds,
		"AUTOPOST_DISCORD_BURST":         &cfg.Discord.Burst,
		"AUTOPOST_STORAGE_HISTORYLIMIT":  &cfg.Storage.HistoryLimit,
	}
	for env, ptr := range intMap {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("ignoring invalid integer env override", "env", env, "value", val)
			continue
		}
		*ptr = n
	}

	if val := os.Getenv("AUTOPOST_DISCORD_RATEPERSECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Discord.RatePerSecond = f
		} else {
			slog.Warn("ignoring invalid float env override", "env", "AUTOPOST_DISCORD_RATEPERSECOND", "value", val)
		}
	}
}

// expandHome expands a leading ~ in a path.
func expandHome(p string) string {
	if len(p) >= 2 && p[0] == '~' && p[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
