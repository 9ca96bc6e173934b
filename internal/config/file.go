package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// File is the YAML defaults file. Command-line switches are applied on top.
type File struct {
	Hash     string `yaml:"hash"`
	MTime    bool   `yaml:"mtime"`
	FixTime  bool   `yaml:"fixtime"`
	SkipHash bool   `yaml:"skiphash"`
	Fast     bool   `yaml:"fast"`
	LogLevel string `yaml:"log_level"`

	// LogComponents overrides the level per component (catalog, diff, sync, update, app).
	LogComponents map[string]string `yaml:"log_components"`

	Exclude   ExcludeConfig   `yaml:"exclude"`
	HashCache HashCacheConfig `yaml:"hash_cache"`
}

// ExcludeConfig lists exclusion rules by kind.
type ExcludeConfig struct {
	Files []string `yaml:"files"`
	Dirs  []string `yaml:"dirs"`
	Paths []string `yaml:"paths"`
}

// HashCacheConfig configures the persistent hash cache.
type HashCacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultFilePath returns $XDG_CONFIG_HOME/unisync/config.yaml.
func DefaultFilePath() string {
	return filepath.Join(xdg.ConfigHome, Program, "config.yaml")
}

// LoadFile reads and parses a defaults file.
func LoadFile(path string) (*File, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	file.HashCache.Path = os.ExpandEnv(file.HashCache.Path)

	return &file, nil
}

// LoadFileIfExists is LoadFile, except that a missing file yields empty
// defaults.
func LoadFileIfExists(path string) (*File, error) {
	file, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}

	return file, err
}
