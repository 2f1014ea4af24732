package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultRemoteURL  = "https://github.com/Nullvora/mabor.git"
	defaultServerURL  = "https://bench.mabor.dev"
	defaultClientID   = "maborbench-cli"
	defaultListenAddr = ":8080"

	defaultRepetitions = 10
	defaultWarmUp      = 3
	defaultParallelism = 1

	envRemoteURL   = "MABORBENCH_REMOTE_URL"
	envLocalDir    = "MABORBENCH_LOCAL_DIR"
	envServerURL   = "MABORBENCH_SERVER_URL"
	envCacheDir    = "MABORBENCH_CACHE_DIR"
	envDBPath      = "MABORBENCH_DB_PATH"
	envListenAddr  = "MABORBENCH_LISTEN_ADDR"
	envRepetitions = "MABORBENCH_REPETITIONS"
	envWarmUp      = "MABORBENCH_WARMUP"
	envParallelism = "MABORBENCH_PARALLELISM"
	envTimeout     = "MABORBENCH_TIMEOUT"
	envLogLevel    = "MABORBENCH_LOG_LEVEL"
)

// Config holds application configuration. Precedence is environment
// variables over the config file over built-in defaults.
type Config struct {
	RemoteURL  string
	LocalDir   string
	ServerURL  string
	ClientID   string
	CacheDir   string
	DBPath     string
	ListenAddr string

	Repetitions int
	WarmUp      int
	Parallelism int
	Timeout     time.Duration

	LogLevel slog.Level
}

// fileConfig is the on-disk TOML shape. All fields are optional.
type fileConfig struct {
	RemoteURL   string `toml:"remote_url"`
	LocalDir    string `toml:"local_dir"`
	ServerURL   string `toml:"server_url"`
	ClientID    string `toml:"client_id"`
	CacheDir    string `toml:"cache_dir"`
	DBPath      string `toml:"db_path"`
	ListenAddr  string `toml:"listen_addr"`
	Repetitions int    `toml:"repetitions"`
	WarmUp      int    `toml:"warmup"`
	Parallelism int    `toml:"parallelism"`
	Timeout     string `toml:"timeout"`
	LogLevel    string `toml:"log_level"`
}

// Load reads configuration from the default config file location and the
// environment.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads configuration, layering the file at path (when present)
// and the environment over defaults. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if err := cfg.applyFile(fc); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.CacheDir, "maborbench.db")
	}
	return cfg, nil
}

// DefaultPath returns the config file location under the user's config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "maborbench", "config.toml")
}

// TokenPath returns where the auth token is persisted.
func (c Config) TokenPath() string {
	return filepath.Join(c.CacheDir, "token.json")
}

func defaults() Config {
	cacheDir := filepath.Join("mabor", "maborbench")
	if base, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(base, "mabor", "maborbench")
	}
	return Config{
		RemoteURL:   defaultRemoteURL,
		LocalDir:    ".",
		ServerURL:   defaultServerURL,
		ClientID:    defaultClientID,
		CacheDir:    cacheDir,
		ListenAddr:  defaultListenAddr,
		Repetitions: defaultRepetitions,
		WarmUp:      defaultWarmUp,
		Parallelism: defaultParallelism,
		LogLevel:    slog.LevelInfo,
	}
}

func (c *Config) applyFile(fc fileConfig) error {
	if fc.RemoteURL != "" {
		c.RemoteURL = fc.RemoteURL
	}
	if fc.LocalDir != "" {
		c.LocalDir = fc.LocalDir
	}
	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.ClientID != "" {
		c.ClientID = fc.ClientID
	}
	if fc.CacheDir != "" {
		c.CacheDir = fc.CacheDir
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.ListenAddr != "" {
		c.ListenAddr = fc.ListenAddr
	}
	if fc.Repetitions > 0 {
		c.Repetitions = fc.Repetitions
	}
	if fc.WarmUp > 0 {
		c.WarmUp = fc.WarmUp
	}
	if fc.Parallelism > 0 {
		c.Parallelism = fc.Parallelism
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		c.Timeout = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envRemoteURL); v != "" {
		c.RemoteURL = v
	}
	if v := os.Getenv(envLocalDir); v != "" {
		c.LocalDir = v
	}
	if v := os.Getenv(envServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(envCacheDir); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(envListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(envRepetitions); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: %q", envRepetitions, v)
		}
		c.Repetitions = n
	}
	if v := os.Getenv(envWarmUp); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: %q", envWarmUp, v)
		}
		c.WarmUp = n
	}
	if v := os.Getenv(envParallelism); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: %q", envParallelism, v)
		}
		c.Parallelism = n
	}
	if v := os.Getenv(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", envTimeout, v)
		}
		c.Timeout = d
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = parseLogLevel(v)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
