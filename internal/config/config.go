package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName   = ".prolly.db"
	DefaultBlobDirName  = ".prolly-blobs"
	DefaultLogLevel     = "info"
	DefaultSweepWorkers = 4
	DefaultSweepBatch   = 500

	configFileName = ".prolly.toml"

	configDirEnvKey          = "PROLLY_CONFIG_DIR"
	trustProjectConfigEnvKey = "PROLLY_TRUST_PROJECT_CONFIG"
	dbPathEnvKey             = "PROLLY_DB"
	blobRootEnvKey           = "PROLLY_BLOB_ROOT"
	logLevelEnvKey           = "PROLLY_LOG_LEVEL"
)

// BlobConfig tunes blob reclamation.
type BlobConfig struct {
	SweepWorkers   int `toml:"sweep_workers"`
	SweepBatchSize int `toml:"sweep_batch_size"`
}

// Config defines runtime configuration for prolly.
type Config struct {
	DBPath                   string     `toml:"db_path"`
	BlobRoot                 string     `toml:"blob_root"`
	LogLevel                 string     `toml:"log_level"`
	Blobs                    BlobConfig `toml:"blobs"`
	TrustedProjectConfigPath string     `toml:"-"`
}

// Default returns default configuration values. Paths stay empty until Load
// resolves them against the working directory.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Blobs: BlobConfig{
			SweepWorkers:   DefaultSweepWorkers,
			SweepBatchSize: DefaultSweepBatch,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"db_path",
	"blob_root",
	"log_level",
	"blobs.sweep_workers",
	"blobs.sweep_batch_size",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return slices.Clone(allowedKeys)
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	return slices.Contains(allowedKeys, key)
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "blob_root":
		return c.BlobRoot, nil
	case "log_level":
		return c.LogLevel, nil
	case "blobs.sweep_workers":
		return strconv.Itoa(c.Blobs.SweepWorkers), nil
	case "blobs.sweep_batch_size":
		return strconv.Itoa(c.Blobs.SweepBatchSize), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if blobRoot := os.Getenv(blobRootEnvKey); blobRoot != "" {
		cfg.BlobRoot = blobRoot
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnvKey)); level != "" {
		cfg.LogLevel = level
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if cwd, err := os.Getwd(); err == nil {
		if c.DBPath == "" {
			c.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
		if c.BlobRoot == "" {
			c.BlobRoot = filepath.Join(cwd, DefaultBlobDirName)
		}
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Blobs.SweepWorkers <= 0 {
		c.Blobs.SweepWorkers = DefaultSweepWorkers
	}
	if c.Blobs.SweepBatchSize <= 0 {
		c.Blobs.SweepBatchSize = DefaultSweepBatch
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "blobs.sweep_workers", "blobs.sweep_batch_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			return strings.ToLower(value), nil
		}
		if _, err := strconv.Atoi(value); err == nil {
			return value, nil
		}
		return nil, fmt.Errorf("log_level must be debug, info, warn, error or a number")
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
