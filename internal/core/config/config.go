package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/bfr/internal/core/project"
)

const ConfigFileName = "bfr.toml"

// LoadConfig reads the bfr.toml file from the given dirPath.
func LoadConfig(dirPath string) (*project.Config, error) {
	return LoadConfigFile(filepath.Join(dirPath, ConfigFileName))
}

// LoadConfigFile reads and validates a config file. Keys the file leaves out
// keep their values from project.NewConfig.
func LoadConfigFile(path string) (*project.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := project.NewConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault behaves like LoadConfigFile but falls back to the
// defaults when the file does not exist.
func LoadConfigOrDefault(path string) (*project.Config, error) {
	cfg, err := LoadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return project.NewConfig(), nil
	}
	return cfg, err
}

// WriteConfig marshals cfg and writes it as bfr.toml into dirPath,
// overwriting any existing file.
func WriteConfig(dirPath string, cfg *project.Config) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return err
	}

	fullPath := filepath.Join(dirPath, ConfigFileName)
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(buf.Bytes())
	return err
}

// ResolvePath makes p absolute against root. Absolute paths are returned cleaned.
func ResolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
