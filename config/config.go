// Package config loads the application configuration from a yaml file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" env:"BOOKSLY_DB_PATH" env-default:"booksly.db"`
	// BusyTimeoutMS is passed to the driver as _busy_timeout.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" env:"BOOKSLY_DB_BUSY_TIMEOUT_MS" env-default:"5000"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"BOOKSLY_LOG_LEVEL" env-default:"info"`
}

// Load reads path if it exists, then applies environment overrides. A missing
// file is not an error; defaults and environment cover everything. A file that
// exists but does not parse is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	err := cleanenv.ReadConfig(path, cfg)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
