package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-pdfwatch/internal/fileutil"
	"github.com/alnah/go-pdfwatch/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidTimeout  = errors.New("invalid timeout")
	ErrInvalidWorkers  = errors.New("invalid worker count")
	ErrNoHomeDir       = errors.New("cannot resolve home directory")
)

// configDirName is the directory under the user config dir searched for named configs.
const configDirName = "go-pdfwatch"

// Default directories, relative to the user's home.
const (
	DefaultInputSubdir  = "Downloads/RawHTML"
	DefaultOutputSubdir = "ActiveResumes"
)

// MaxWorkers caps explicit worker counts. Each slot is a Chrome instance (~200MB).
const MaxWorkers = 32

// Config holds all configuration for the watcher.
type Config struct {
	Input  InputConfig  `yaml:"input" toml:"input"`
	Output OutputConfig `yaml:"output" toml:"output"`
	Render RenderConfig `yaml:"render" toml:"render"`
	Watch  WatchConfig  `yaml:"watch" toml:"watch"`
}

// InputConfig defines the watched directory.
type InputConfig struct {
	Dir string `yaml:"dir" toml:"dir"` // Empty = $HOME/Downloads/RawHTML
}

// OutputConfig defines where PDFs are written.
type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"` // Empty = $HOME/ActiveResumes
}

// RenderConfig defines browser rendering limits.
type RenderConfig struct {
	Timeout string `yaml:"timeout" toml:"timeout"` // Go duration, e.g. "30s" (empty = 30s)
	Workers int    `yaml:"workers" toml:"workers"` // Concurrent browsers: 0 = auto, -1 = unlimited
}

// WatchConfig defines watch-loop behavior.
type WatchConfig struct {
	InitialScan bool `yaml:"initialScan" toml:"initialScan"` // Convert files already present at startup
	FailFast    bool `yaml:"failFast" toml:"failFast"`       // Abort an archive on its first failing entry
}

// DefaultConfig returns a configuration with every field at its zero default.
// Directory defaults are resolved later by ResolveDirs.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks field values. Called by LoadConfig and again after
// flags and env vars are merged.
func (c *Config) Validate() error {
	if c.Render.Timeout != "" {
		if _, err := ParseTimeout(c.Render.Timeout); err != nil {
			return fmt.Errorf("render.timeout: %w", err)
		}
	}
	if c.Render.Workers < -1 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers must be between -1 and %d, got %d",
			ErrInvalidWorkers, MaxWorkers, c.Render.Workers)
	}
	return nil
}

// ResolveDirs fills empty input/output directories from the user's home.
func (c *Config) ResolveDirs(home string) error {
	if c.Input.Dir != "" && c.Output.Dir != "" {
		return nil
	}
	if home == "" {
		return ErrNoHomeDir
	}
	if c.Input.Dir == "" {
		c.Input.Dir = filepath.Join(home, filepath.FromSlash(DefaultInputSubdir))
	}
	if c.Output.Dir == "" {
		c.Output.Dir = filepath.Join(home, filepath.FromSlash(DefaultOutputSubdir))
	}
	return nil
}

// ParseTimeout parses a positive Go duration.
func ParseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, s)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := decode(configPath, data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// decode parses data strictly, as TOML for .toml files and YAML otherwise.
func decode(path string, data []byte, cfg *Config) error {
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return yamlutil.UnmarshalStrict(data, cfg)
	}
	if len(data) > yamlutil.MaxInputSize {
		return fmt.Errorf("%w: %d bytes", yamlutil.ErrInputTooLarge, len(data))
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// SearchPaths lists where a config name is looked up, in order:
// ./<name>.yaml, ./<name>.yml, ./<name>.toml, then the same names under
// <user config dir>/go-pdfwatch/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml", ".toml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, configDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry for name.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
