package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds server-level settings loaded from the YAML config file.
// Gameplay numbers live in Balance, not here.
type Config struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
	DBPath  string `yaml:"db_path" json:"db_path"`
}

// Defaults returns the config used when no file is present.
func Defaults() Config {
	return Config{
		Addr:    ":8080",
		DataDir: "data",
		DBPath:  "data/sproutling.db",
	}
}

// Load reads the YAML config at path. A missing file is not an error;
// defaults are returned so the server can boot with zero setup.
func Load(path string) (Config, error) {
	cfg := Defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = Defaults().Addr
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = Defaults().DataDir
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = Defaults().DBPath
	}
	return cfg, nil
}
