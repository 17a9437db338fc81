// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

type AppConfig struct {
	Version      string   `toml:"version"`
	ClientURL    string   `toml:"client_url"`
	AppName      string   `toml:"app_name"`
	RootPath     string   `toml:"root_path"`
	DataPath     string   `toml:"data_path"`
	IndexPath    string   `toml:"index_path"`
	MegadocDir   string   `toml:"megadoc_dir"`
	BatchName    string   `toml:"batch_name"`
	MegadocTypes []string `toml:"megadoc_types"`
}

type DBConfig struct {
	SQLPath   string `toml:"sql_path"`
	Retries   int    `toml:"retries"`
	BatchSize int    `toml:"batch_size"`
}

// ConcurrencyConfig bounds the width of the Orchestrator's per-album
// Ingestor errgroup. The per-filetype Builder/Uploader goroutines of
// StartSearch are not limited by it.
type ConcurrencyConfig struct {
	MaxOpenFiles int `toml:"max_open_files"`
}

// S3Config holds the object-store connection. AccessKey/SecretKey are never
// read from TOML, only from ORCA_S3_ACCESS_KEY/ORCA_S3_SECRET_KEY, so
// credentials never round-trip through a config file on disk.
type S3Config struct {
	URL       string `toml:"url"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Space     string `toml:"space"`
	AccessKey string `toml:"-"`
	SecretKey string `toml:"-"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	LogFile string `toml:"log_file"`
	LogDir  string `toml:"log_dir"`
}

type Config struct {
	App         AppConfig         `toml:"app"`
	DB          DBConfig          `toml:"db"`
	S3          S3Config          `toml:"s3"`
	Logging     LoggingConfig     `toml:"logging"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
}

var (
	instance     *Config
	instanceOnce sync.Once
	mu           sync.RWMutex
)

func defaults() *Config {
	return &Config{
		App: AppConfig{
			AppName:      "orca",
			DataPath:     defaultDataDir(),
			IndexPath:    filepath.Join(defaultDataDir(), "index"),
			MegadocDir:   "megadocs",
			MegadocTypes: []string{".txt", ".md", ".docx"},
		},
		DB: DBConfig{
			SQLPath:   filepath.Join(defaultDataDir(), "orca.db"),
			Retries:   10,
			BatchSize: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			LogDir: filepath.Join(defaultDataDir(), "logs"),
		},
		Concurrency: ConcurrencyConfig{
			MaxOpenFiles: 32,
		},
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".orca")
}

// Init loads the TOML file at path (if it exists) over the defaults, applies
// environment overrides, and normalizes every *_path-suffixed field to a
// clean absolute path. Only the first call takes effect; later calls are
// no-ops.
func Init(path string) error {
	var initErr error
	instanceOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		cfg := defaults()

		if path != "" {
			if _, err := os.Stat(path); err == nil {
				if _, err := toml.DecodeFile(path, cfg); err != nil {
					initErr = fmt.Errorf("failed to decode config %s: %w", path, err)
				}
			}
		}

		applyEnvOverrides(cfg)
		normalizePaths(cfg)

		instance = cfg
	})
	return initErr
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ORCA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ORCA_SQL_PATH"); v != "" {
		cfg.DB.SQLPath = v
	}
	if v := os.Getenv("ORCA_ROOT_PATH"); v != "" {
		cfg.App.RootPath = v
	}
	if v := os.Getenv("ORCA_DATA_PATH"); v != "" {
		cfg.App.DataPath = v
	}
	cfg.S3.AccessKey = os.Getenv("ORCA_S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("ORCA_S3_SECRET_KEY")
}

func normalizePaths(cfg *Config) {
	cfg.DB.SQLPath = cleanPath(cfg.DB.SQLPath)
	cfg.App.RootPath = cleanPath(cfg.App.RootPath)
	cfg.App.DataPath = cleanPath(cfg.App.DataPath)
	cfg.App.IndexPath = cleanPath(cfg.App.IndexPath)
	cfg.Logging.LogDir = cleanPath(cfg.Logging.LogDir)
}

func cleanPath(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}

// Get returns the process-wide config, initializing it with defaults (no
// file, no env overrides beyond what's already in the environment) if Init
// was never called; tests rely on this for zero-config fixtures.
func Get() *Config {
	mu.RLock()
	needsInit := instance == nil
	mu.RUnlock()

	if needsInit {
		Init("")
	}

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// ResetForTesting clears the singleton so tests can Init a fresh config.
func ResetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	instanceOnce = sync.Once{}
}
