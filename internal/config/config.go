package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings the client needs at startup.
type Config struct {
	APIHost    string
	DataDir    string
	LogFile    string
	PageWindow int
}

const (
	defaultConfigPath = "~/.config/beerstore/config.toml"
	defaultDataDir    = "~/.local/share/beerstore"
	defaultAPIHost    = "localhost:3000"
	defaultPageWindow = 20
)

// Environment variables that override the file.
const (
	EnvAPIHost = "BEERSTORE_API_HOST"
	EnvDataDir = "BEERSTORE_DATA_DIR"
	EnvLogFile = "BEERSTORE_LOG_FILE"
)

// Load parses the config file at path and applies overrides from envFile and
// the process environment, in that order of increasing priority. Missing files
// fall back to defaults.
func Load(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		APIHost    string `toml:"api_host"`
		DataDir    string `toml:"data_dir"`
		LogFile    string `toml:"log_file"`
		PageWindow int    `toml:"page_window"`
	}

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	env, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return v
		}
		if v := env[key]; strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		APIHost:    strings.TrimSpace(lookup(EnvAPIHost, raw.APIHost)),
		DataDir:    strings.TrimSpace(lookup(EnvDataDir, raw.DataDir)),
		LogFile:    strings.TrimSpace(lookup(EnvLogFile, raw.LogFile)),
		PageWindow: raw.PageWindow,
	}
	if cfg.APIHost == "" {
		cfg.APIHost = defaultAPIHost
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	cfg.DataDir = mustExpand(cfg.DataDir)
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "beerstore.log")
	}
	cfg.LogFile = mustExpand(cfg.LogFile)
	if cfg.PageWindow <= 0 {
		cfg.PageWindow = defaultPageWindow
	}

	return cfg, nil
}

// CachePath is the SQLite file holding snapshots and settings.
func (c Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// PhotoDir is where item photos are written.
func (c Config) PhotoDir() string {
	return filepath.Join(c.DataDir, "photos")
}

// String renders the effective configuration for -print-config.
func (c Config) String() string {
	var b strings.Builder
	b.WriteString("api_host = " + strconv.Quote(c.APIHost) + "\n")
	b.WriteString("data_dir = " + strconv.Quote(c.DataDir) + "\n")
	b.WriteString("log_file = " + strconv.Quote(c.LogFile) + "\n")
	b.WriteString("page_window = " + strconv.Itoa(c.PageWindow) + "\n")
	return b.String()
}

func readEnvFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
