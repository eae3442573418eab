package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// fileConfig holds defaults read from ~/.islandcompare/config.yaml. Flags
// and environment variables take precedence over it.
type fileConfig struct {
	Host string `yaml:"host"`
	Key  string `yaml:"key"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".islandcompare", configFileName), nil
}

// loadFileConfig reads the config file, returning an empty config when the
// file does not exist.
func loadFileConfig() (fileConfig, error) {
	var cfg fileConfig

	path, err := configPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
